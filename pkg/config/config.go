// Package config provides configuration management for the importer.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultMappingPath is where the account mapping is read from by default.
const DefaultMappingPath = "config/zenmoney-mapping.yaml"

// Config represents the application configuration.
type Config struct {
	ZenMoney  ZenMoneyConfig
	Beancount BeancountConfig
	Debug     bool
}

// ZenMoneyConfig represents ZenMoney import configuration.
type ZenMoneyConfig struct {
	MappingPath string
	// Flag overrides the flag of the mapping file when set ("*" or "!").
	Flag string
}

// BeancountConfig represents Beancount-related configuration.
type BeancountConfig struct {
	Root         string
	DBPath       string
	DocumentsDir string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		ZenMoney: ZenMoneyConfig{
			MappingPath: getEnvOrDefault("ZENMONEY_MAPPING_PATH", DefaultMappingPath),
			Flag:        os.Getenv("ZENMONEY_FLAG"),
		},
		Beancount: BeancountConfig{
			Root:         getEnvOrDefault("BEANCOUNT_ROOT", "./beancount"),
			DBPath:       os.Getenv("BEANCOUNT_DB_PATH"),
			DocumentsDir: os.Getenv("BEANCOUNT_DOCUMENTS_DIR"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	if f := config.ZenMoney.Flag; f != "" && f != "*" && f != "!" {
		return nil, fmt.Errorf("invalid ZENMONEY_FLAG: %q (expected \"*\" or \"!\")", f)
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "zenmoney":
			switch path[1] {
			case "mappingPath":
				value = c.ZenMoney.MappingPath
			case "flag":
				value = c.ZenMoney.Flag
			}
		case "beancount":
			switch path[1] {
			case "root":
				value = c.Beancount.Root
			case "dbPath":
				value = c.Beancount.DBPath
			case "documentsDir":
				value = c.Beancount.DocumentsDir
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
