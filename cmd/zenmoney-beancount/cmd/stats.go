package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/config"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/db"
)

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display import statistics",
	Long: `Display statistics about imported ZenMoney rows.

Shows:
- Total number of imported rows, by transaction kind
- Date range of imported transactions
- Last import timestamp and file

Example:
  zenmoney-beancount stats`,
	Run: runStats,
}

func runStats(cmd *cobra.Command, args []string) {
	slog.Info("Loading configuration")

	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"beancount", "root"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	dbPath := newPathResolver(cfg).GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)

	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewImportHistory(conn)

	stats, err := history.GetStats()
	exitOnError(err, "failed to get statistics")

	lastFile, err := history.GetMetadata(db.MetaLastImportFile)
	exitOnError(err, "failed to get import metadata")

	printStats(cmd.OutOrStdout(), stats, lastFile)
	slog.Info("Statistics displayed successfully")
}

func printStats(w io.Writer, stats *db.Stats, lastFile string) {
	fmt.Fprintln(w, "\n=== Import Statistics ===")
	fmt.Fprintf(w, "Total imported rows:   %d\n", stats.TotalRows)

	kinds := make([]string, 0, len(stats.ByKind))
	for kind := range stats.ByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		fmt.Fprintf(w, "  %-24s %d\n", kind+":", stats.ByKind[kind])
	}

	if stats.FirstDate.Valid && stats.LastDate.Valid {
		fmt.Fprintf(w, "Transactions:          %s to %s\n", stats.FirstDate.String, stats.LastDate.String)
	}

	if stats.LastImport.Valid {
		fmt.Fprintf(w, "Last import:           %s\n", stats.LastImport.String)
	} else {
		fmt.Fprintf(w, "Last import:           (never)\n")
	}
	if lastFile != "" {
		fmt.Fprintf(w, "Last import file:      %s\n", lastFile)
	}

	fmt.Fprintln(w)
}
