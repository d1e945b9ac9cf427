package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/beancount"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/converter"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/db"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/pathutil"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/zenmoney"
)

var (
	writeFiles bool
	dryRun     bool
)

// extractCmd represents the extract command.
var extractCmd = &cobra.Command{
	Use:   "extract FILE",
	Short: "Convert a ZenMoney export to Beancount",
	Long: `Convert a ZenMoney CSV export to Beancount transactions.

By default the transactions are printed to stdout. With --write they are
appended to monthly files under BEANCOUNT_ROOT, and every imported row is
recorded in the import history so a later run over an overlapping export
does not append it again.

Rows that cannot be parsed are reported as warnings and skipped.

Example:
  zenmoney-beancount extract zen.csv > import.beancount
  zenmoney-beancount extract zen.csv --write
  zenmoney-beancount extract zen.csv --write --dry-run`,
	Args: cobra.ExactArgs(1),
	Run:  runExtract,
}

func init() {
	extractCmd.Flags().BoolVar(&writeFiles, "write", false, "append to monthly Beancount files")
	extractCmd.Flags().BoolVar(&dryRun, "dry-run", false, "with --write, show what would be appended without writing")
}

func runExtract(cmd *cobra.Command, args []string) {
	source := args[0]
	slog.Info("Starting extract", "file", source, "write", writeFiles, "dry_run", dryRun)

	cfg, mapping, err := loadConfig()
	exitOnError(err, "invalid configuration")

	cvtr, err := converter.NewConverter(mapping, slog.Default())
	exitOnError(err, "invalid account mapping")

	rows, err := zenmoney.ReadFile(source)
	exitOnError(err, "failed to read export")

	result, err := cvtr.ConvertRows(rows)
	exitOnError(err, "conversion failed")

	slog.Info("Converted export",
		"rows", len(rows),
		"transactions", len(result.Entries),
		"skipped", len(result.Skipped),
	)

	if !writeFiles {
		exitOnError(printEntries(cmd.OutOrStdout(), result.Entries), "failed to print transactions")
		return
	}

	pathResolver := newPathResolver(cfg)

	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	history := db.NewImportHistory(conn)
	imported, err := history.ImportedFingerprints()
	exitOnError(err, "failed to load import history")

	pending := filterImported(result.Entries, imported)
	slog.Info("New rows to import",
		"new", len(pending),
		"already_imported", len(result.Entries)-len(pending),
	)

	if len(pending) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No new transactions to import")
		return
	}

	if dryRun {
		for _, e := range pending {
			path, _ := pathResolver.GetMonthFilePath(beancount.YearMonth(e.Transaction))
			fmt.Fprintf(cmd.OutOrStdout(), "[DRY RUN] Would append to %s\n", path)
		}
		exitOnError(printEntries(cmd.OutOrStdout(), pending), "failed to print transactions")
		return
	}

	repo := beancount.NewFileSystemRepository(pathResolver)
	written, err := writeEntries(repo, history, pathResolver, pending, source)
	exitOnError(err, "failed to write transactions")

	exitOnError(history.SetMetadata(db.MetaLastImportFile, filepath.Base(source)), "failed to update import metadata")

	slog.Info("Extract completed", "written", written, "skipped", len(result.Skipped))
}

// printEntries writes the transactions in Beancount syntax, separated by blank lines.
func printEntries(w io.Writer, entries []converter.Entry) error {
	for _, e := range entries {
		if _, err := fmt.Fprintln(w, beancount.Format(e.Transaction)); err != nil {
			return err
		}
	}
	return nil
}

// filterImported drops entries whose row is already in the import history.
func filterImported(entries []converter.Entry, imported map[string]bool) []converter.Entry {
	var result []converter.Entry
	for _, e := range entries {
		if !imported[e.Row.Fingerprint()] {
			result = append(result, e)
		}
	}
	return result
}

// writeEntries appends the transactions to their monthly files and records
// them in the import history. It stops at the first write error; rows
// written before it are still recorded.
func writeEntries(repo beancount.Repository, history *db.ImportHistory, pathResolver *pathutil.PathResolver, entries []converter.Entry, source string) (int, error) {
	var records []db.ImportRecord
	var writeErr error

	for _, e := range entries {
		txn := e.Transaction
		if err := repo.AppendTransaction(txn); err != nil {
			writeErr = fmt.Errorf("line %d: %w", e.Row.Line, err)
			break
		}

		filePath, _ := pathResolver.GetMonthFilePath(beancount.YearMonth(txn))
		records = append(records, db.ImportRecord{
			Fingerprint:   e.Row.Fingerprint(),
			Kind:          e.Kind.String(),
			TxnDate:       txn.Date.Format(beancount.DateFormat),
			Payee:         txn.Payee,
			SourceFile:    filepath.Base(source),
			BeancountFile: filePath,
		})
	}

	if len(records) > 0 {
		if err := history.RecordImports(records); err != nil {
			return len(records), err
		}
	}

	return len(records), writeErr
}
