package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sarchlab/minicache/benchmarks"
	"github.com/sarchlab/minicache/timing/cache"
	"github.com/sarchlab/minicache/timing/latency"
	"github.com/sarchlab/minicache/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run traffic through the cache and the reference model.",
	Long: "`run --pattern random --requests 10000` replays generated traffic " +
		"and reports statistics and any mismatch with the reference model. " +
		"The command fails if any pattern does not match.",
	RunE: runSimulation,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("cache-config", "", "Path to cache configuration JSON file")
	runCmd.Flags().String("timing-config", "", "Path to timing configuration JSON file")
	runCmd.Flags().String("pattern", "all",
		fmt.Sprintf("Traffic pattern, one of %v or all", benchmarks.PatternNames()))
	runCmd.Flags().Int("requests", 1000, "Number of requests per pattern")
	runCmd.Flags().Int64("seed", 1, "Seed for traffic and memory contents")
	runCmd.Flags().Float64("abort-rate", 0, "Probability that a write is aborted")
	runCmd.Flags().Uint64("max-cycles", 10_000_000, "Cycle limit per pattern, 0 for none")
	runCmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	runCmd.Flags().Bool("csv", false, "Print results as CSV")
	runCmd.Flags().Bool("trace", false, "Record responses and bus bursts")
	runCmd.Flags().String("trace-file", "", "Trace file name without suffix")
	runCmd.Flags().String("trace-format", "csv", "Trace format, csv or sqlite")
	runCmd.Flags().String("json", "", "Write results as JSON to this file")
}

func runSimulation(cmd *cobra.Command, args []string) error {
	config, err := harnessConfig(cmd)
	if err != nil {
		return err
	}

	patternName, _ := cmd.Flags().GetString("pattern")
	patterns, err := selectPatterns(patternName)
	if err != nil {
		return err
	}

	if enabled, _ := cmd.Flags().GetBool("trace"); enabled {
		writer, err := openTrace(cmd)
		if err != nil {
			return err
		}
		defer func() {
			if err := writer.Close(); err != nil {
				log.Printf("Error closing trace: %v", err)
			}
		}()

		config.Hooks = append(config.Hooks, tracing.NewHook(writer))
	}

	requests, _ := cmd.Flags().GetInt("requests")
	seed, _ := cmd.Flags().GetInt64("seed")
	abortRate, _ := cmd.Flags().GetFloat64("abort-rate")
	if abortRate < 0 || abortRate > 1 {
		return fmt.Errorf("abort rate %v must be in [0, 1]", abortRate)
	}

	harness := benchmarks.NewHarness(config)
	for _, p := range patterns {
		harness.AddBenchmark(benchmarks.NewBenchmark(
			p, config.Cache, requests, abortRate, seed))
	}

	results := harness.RunAll()

	if asCSV, _ := cmd.Flags().GetBool("csv"); asCSV {
		harness.PrintCSV(results)
	} else {
		harness.PrintResults(results)
	}

	if path, _ := cmd.Flags().GetString("json"); path != "" {
		if err := writeResults(path, results); err != nil {
			return err
		}
	}

	failed := 0
	for _, r := range results {
		if !r.Passed() {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d patterns did not match the reference model",
			failed, len(results))
	}

	return nil
}

func harnessConfig(cmd *cobra.Command) (benchmarks.HarnessConfig, error) {
	config := benchmarks.DefaultConfig()
	config.Output = cmd.OutOrStdout()
	config.Verbose, _ = cmd.Flags().GetBool("verbose")
	config.MaxCycles, _ = cmd.Flags().GetUint64("max-cycles")

	if path, _ := cmd.Flags().GetString("cache-config"); path != "" {
		c, err := cache.LoadConfig(path)
		if err != nil {
			return config, err
		}
		config.Cache = c
	}
	if err := config.Cache.Validate(); err != nil {
		return config, err
	}

	if path, _ := cmd.Flags().GetString("timing-config"); path != "" {
		t, err := latency.LoadConfig(path)
		if err != nil {
			return config, err
		}
		config.Timing = t
	}
	if err := config.Timing.Validate(); err != nil {
		return config, err
	}

	if config.Verbose {
		log.Printf("Cache: %d sets, %d-byte lines, %d-bit words, %d-bit bus",
			config.Cache.Sets, config.Cache.BlockBytes, config.Cache.XLen,
			config.Cache.Bus.DataBits)
	}

	return config, nil
}

func selectPatterns(name string) ([]benchmarks.Pattern, error) {
	if name == "all" {
		return benchmarks.GetPatterns(), nil
	}

	p, err := benchmarks.GetPattern(name)
	if err != nil {
		return nil, err
	}

	return []benchmarks.Pattern{p}, nil
}

func openTrace(cmd *cobra.Command) (tracing.Writer, error) {
	format, _ := cmd.Flags().GetString("trace-format")
	path, _ := cmd.Flags().GetString("trace-file")

	writer, err := tracing.NewWriter(format, path)
	if err != nil {
		return nil, err
	}

	if err := writer.Init(); err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}

	if named, ok := writer.(interface{ Path() string }); ok {
		log.Printf("Tracing to %s (%s)", named.Path(), format)
	}

	return writer, nil
}

func writeResults(path string, results []benchmarks.BenchmarkResult) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return benchmarks.WriteJSON(file, results)
}
