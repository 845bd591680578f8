package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/minicache/timing/cache"
	"github.com/sarchlab/minicache/timing/latency"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Write the default configuration files.",
	Long: "`config` writes the default cache geometry and memory timing " +
		"as JSON files that can be edited and passed to `run`.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cachePath, _ := cmd.Flags().GetString("cache-config")
		timingPath, _ := cmd.Flags().GetString("timing-config")

		if err := cache.DefaultConfig().SaveConfig(cachePath); err != nil {
			return err
		}

		if err := latency.DefaultTimingConfig().SaveConfig(timingPath); err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s\n", cachePath, timingPath)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().String("cache-config", "cache_config.json",
		"Path of the cache configuration file to write")
	configCmd.Flags().String("timing-config", "timing_config.json",
		"Path of the timing configuration file to write")
}
