package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "Cycle-stepped write-back cache simulator.",
	Long: `cachesim drives a direct-mapped write-back cache controller with ` +
		`generated traffic over a NASTI bus and checks every response and ` +
		`burst against a transaction-level reference model.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
