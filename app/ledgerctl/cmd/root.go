// Package cmd contains the ledgerctl app.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ledgerctl",
	Short: "Drive and inspect a hash-linked event ledger from the console",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
