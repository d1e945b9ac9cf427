package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/converter"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/pathutil"
	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/zenmoney"
)

var archiveDryRun bool

// archiveCmd represents the archive command.
var archiveCmd = &cobra.Command{
	Use:   "archive FILE",
	Short: "File a ZenMoney export under the documents directory",
	Long: `Move a ZenMoney export to
  <documents>/<base account path>/<first date>-to-<last date>.zenmoney.csv
where the dates are those of the transactions the export converts to.

Example:
  zenmoney-beancount archive ~/Downloads/zen_2025-12.csv
  zenmoney-beancount archive ~/Downloads/zen_2025-12.csv --dry-run`,
	Args: cobra.ExactArgs(1),
	Run:  runArchive,
}

func init() {
	archiveCmd.Flags().BoolVar(&archiveDryRun, "dry-run", false, "print the destination without moving the file")
}

func runArchive(cmd *cobra.Command, args []string) {
	source := args[0]

	if !zenmoney.Identify(source) {
		exitOnError(fmt.Errorf("%s: %w", source, zenmoney.ErrNotZenMoney), "cannot archive")
	}

	cfg, mapping, err := loadConfig()
	exitOnError(err, "invalid configuration")

	pathResolver := newPathResolver(cfg)
	dest, err := archiveDestination(pathResolver, mapping, source)
	exitOnError(err, "failed to compute archive path")

	if archiveDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "[DRY RUN] Would move %s to %s\n", source, dest)
		return
	}

	exitOnError(moveFile(pathResolver, source, dest), "failed to archive export")
	slog.Info("Archived export", "from", source, "to", dest)
	fmt.Fprintln(cmd.OutOrStdout(), dest)
}

// archiveDestination converts the export and derives its archive path from
// the dates of the produced transactions.
func archiveDestination(pathResolver *pathutil.PathResolver, mapping *converter.Mapping, source string) (string, error) {
	cvtr, err := converter.NewConverter(mapping, slog.Default())
	if err != nil {
		return "", err
	}

	rows, err := zenmoney.ReadFile(source)
	if err != nil {
		return "", err
	}

	result, err := cvtr.ConvertRows(rows)
	if err != nil {
		return "", err
	}

	start, end, ok := result.DateRange()
	if !ok {
		return "", fmt.Errorf("%s contains no transactions", source)
	}

	return pathResolver.GetArchivePath(mapping.BaseAccount, start, end)
}

func moveFile(pathResolver *pathutil.PathResolver, from, to string) error {
	if pathResolver.FileExists(to) {
		return fmt.Errorf("destination already exists: %s", to)
	}
	if err := pathResolver.EnsureParentDir(to); err != nil {
		return err
	}
	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("failed to move file: %w", err)
	}
	return nil
}
