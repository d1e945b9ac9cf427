// Package pathutil provides centralized path management for Beancount files,
// the import history database and archived ZenMoney exports.
package pathutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ArchiveSuffix is appended to the date range of archived export files.
const ArchiveSuffix = ".zenmoney.csv"

const dateLayout = "2006-01-02"

// PathResolver manages paths for Beancount files, database, and documents.
type PathResolver struct {
	beancountRoot string
	databasePath  string
	documentsDir  string
}

// Config represents the configuration for PathResolver.
type Config struct {
	// BeancountRoot is the root directory for all Beancount files (e.g., ~/accounting/beancount)
	BeancountRoot string
	// DatabasePath is the path to the SQLite database file for import history
	DatabasePath string
	// DocumentsDir is the directory archived exports are filed under
	DocumentsDir string
}

// New creates a new PathResolver with the given configuration.
// If DatabasePath is empty, it defaults to {BeancountRoot}/.sync/import.db
// If DocumentsDir is empty, it defaults to "documents"
func New(config Config) *PathResolver {
	dbPath := config.DatabasePath
	if dbPath == "" {
		dbPath = filepath.Join(config.BeancountRoot, ".sync", "import.db")
	}

	documentsDir := config.DocumentsDir
	if documentsDir == "" {
		documentsDir = "documents"
	}

	return &PathResolver{
		beancountRoot: config.BeancountRoot,
		databasePath:  dbPath,
		documentsDir:  documentsDir,
	}
}

// GetBeancountRoot returns the Beancount root directory.
func (p *PathResolver) GetBeancountRoot() string {
	return p.beancountRoot
}

// GetDatabasePath returns the database file path.
func (p *PathResolver) GetDatabasePath() string {
	return p.databasePath
}

// GetDocumentsDir returns the documents directory.
func (p *PathResolver) GetDocumentsDir() string {
	return p.documentsDir
}

// GetYearDir returns the directory path for a year.
// Example: ~/accounting/beancount/2024
func (p *PathResolver) GetYearDir(year string) string {
	return filepath.Join(p.beancountRoot, year)
}

// GetMonthFilePath returns the file path for a month.
// yearMonth should be in YYYY-MM format.
// Example: ~/accounting/beancount/2024/2024-01.beancount
func (p *PathResolver) GetMonthFilePath(yearMonth string) (string, error) {
	parts := strings.Split(yearMonth, "-")
	if len(parts) != 2 || len(parts[0]) != 4 || len(parts[1]) != 2 {
		return "", fmt.Errorf("invalid year-month format: %s. Expected YYYY-MM", yearMonth)
	}

	year := parts[0]
	yearDir := p.GetYearDir(year)
	filename := fmt.Sprintf("%s.beancount", yearMonth)

	return filepath.Join(yearDir, filename), nil
}

// GetArchivePath returns where an export covering [start, end] is filed.
// Each component of the account becomes a directory.
// Example: documents/Assets/ZenMoney/2025-11-01-to-2025-12-15.zenmoney.csv
func (p *PathResolver) GetArchivePath(account string, start, end time.Time) (string, error) {
	if account == "" {
		return "", fmt.Errorf("archive account is empty")
	}
	if end.Before(start) {
		return "", fmt.Errorf("invalid date range: %s is after %s", start.Format(dateLayout), end.Format(dateLayout))
	}

	components := strings.Split(account, ":")
	for _, c := range components {
		if c == "" {
			return "", fmt.Errorf("invalid account name: %s", account)
		}
	}

	filename := fmt.Sprintf("%s-to-%s%s", start.Format(dateLayout), end.Format(dateLayout), ArchiveSuffix)
	parts := append([]string{p.documentsDir}, components...)
	parts = append(parts, filename)

	return filepath.Join(parts...), nil
}

// EnsureDir creates a directory if it doesn't exist.
// It creates all parent directories as needed (like mkdir -p).
func (p *PathResolver) EnsureDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
	}
	return nil
}

// EnsureParentDir ensures the parent directory of a file exists.
func (p *PathResolver) EnsureParentDir(filePath string) error {
	dir := filepath.Dir(filePath)
	return p.EnsureDir(dir)
}

// FileExists checks if a file exists.
func (p *PathResolver) FileExists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}
