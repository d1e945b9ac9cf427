// Package main is the entry point for the zenmoney-beancount CLI.
package main

import (
	"os"

	"github.com/shunichi-ikebuchi/zenmoney-beancount/cmd/zenmoney-beancount/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
