// Package cmd provides CLI commands for zenmoney-beancount.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/config"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/converter"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/pathutil"
)

var (
	cfgFile     string
	mappingFile string
	debug       bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "zenmoney-beancount",
	Short: "Import ZenMoney CSV exports into Beancount",
	Long: `zenmoney-beancount converts ZenMoney CSV exports into balanced
Beancount transactions using an account and category mapping file.

It supports:
- Expenses, incomes, transfers, transfer commissions and currency exchanges
- Appending to monthly Beancount files without importing a row twice
- Archiving exports under documents/<account>/<start>-to-<end>.zenmoney.csv

Example:
  zenmoney-beancount extract zen_2025-12.csv
  zenmoney-beancount extract zen_2025-12.csv --write
  zenmoney-beancount archive zen_2025-12.csv`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Setup logging
		logLevel := slog.LevelInfo
		if debug || os.Getenv("DEBUG") == "true" {
			logLevel = slog.LevelDebug
		}

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))
		slog.SetDefault(logger)
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().StringVar(&mappingFile, "mapping", "", "account mapping YAML (default from ZENMONEY_MAPPING_PATH)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(statsCmd)
}

// loadConfig loads the configuration and the account mapping it points to.
func loadConfig() (*config.Config, *converter.Mapping, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if mappingFile != "" {
		cfg.ZenMoney.MappingPath = mappingFile
	}

	if err := cfg.Validate(
		[]string{"zenmoney", "mappingPath"},
		[]string{"beancount", "root"},
	); err != nil {
		return nil, nil, err
	}

	slog.Debug("Loading account mapping", "path", cfg.ZenMoney.MappingPath)
	mapping, err := converter.LoadMapping(cfg.ZenMoney.MappingPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load account mapping: %w", err)
	}
	if cfg.ZenMoney.Flag != "" {
		mapping.Flag = cfg.ZenMoney.Flag
	}

	return cfg, mapping, nil
}

func newPathResolver(cfg *config.Config) *pathutil.PathResolver {
	return pathutil.New(pathutil.Config{
		BeancountRoot: cfg.Beancount.Root,
		DatabasePath:  cfg.Beancount.DBPath,
		DocumentsDir:  cfg.Beancount.DocumentsDir,
	})
}

// Helper function to handle errors and exit.
func exitOnError(err error, msg string) {
	if err != nil {
		slog.Error(msg, "error", err)
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
		os.Exit(1)
	}
}
