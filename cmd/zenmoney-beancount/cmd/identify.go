package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/pkg/zenmoney"
)

// identifyCmd represents the identify command.
var identifyCmd = &cobra.Command{
	Use:   "identify FILE...",
	Short: "Report which files are ZenMoney exports",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		for _, path := range args {
			status := "-"
			if zenmoney.Identify(path) {
				status = "zenmoney"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", status, path)
		}
	},
}
