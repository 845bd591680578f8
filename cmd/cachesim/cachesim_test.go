package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/sarchlab/minicache/timing/cache"
)

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()

	return out.String(), err
}

var _ = Describe("cachesim", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()

		for _, c := range rootCmd.Commands() {
			c.Flags().VisitAll(func(f *pflag.Flag) {
				_ = f.Value.Set(f.DefValue)
				f.Changed = false
			})
		}
	})

	It("should write loadable default configs", func() {
		cachePath := filepath.Join(dir, "cache.json")
		timingPath := filepath.Join(dir, "timing.json")

		_, err := execute("config",
			"--cache-config", cachePath, "--timing-config", timingPath)
		Expect(err).NotTo(HaveOccurred())

		config, err := cache.LoadConfig(cachePath)
		Expect(err).NotTo(HaveOccurred())
		Expect(config).To(Equal(cache.DefaultConfig()))
		Expect(timingPath).To(BeAnExistingFile())
	})

	It("should run a pattern and write JSON results", func() {
		jsonPath := filepath.Join(dir, "results.json")

		out, err := execute("run",
			"--pattern", "conflict", "--requests", "200", "--seed", "3",
			"--abort-rate", "0.1", "--json", jsonPath)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("Benchmark: conflict"))
		Expect(out).To(ContainSubstring("Reference: match"))

		data, err := os.ReadFile(jsonPath)
		Expect(err).NotTo(HaveOccurred())

		var results []map[string]any
		Expect(json.Unmarshal(data, &results)).To(Succeed())
		Expect(results).To(HaveLen(1))
	})

	It("should write a CSV trace", func() {
		tracePath := filepath.Join(dir, "trace")

		_, err := execute("run",
			"--pattern", "sequential", "--requests", "50", "--trace", "--trace-format", "csv", "--trace-file", tracePath)
		Expect(err).NotTo(HaveOccurred())

		data, err := os.ReadFile(tracePath + ".csv")
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(HavePrefix("ID, Cycle, Kind, Addr, Data\n"))
		Expect(string(data)).To(ContainSubstring(", response, "))
		Expect(string(data)).To(ContainSubstring(", read, "))
	})

	It("should reject an unknown pattern", func() {
		_, err := execute("run", "--pattern", "zigzag")
		Expect(err).To(MatchError(ContainSubstring("unknown pattern")))
	})

	It("should reject an invalid cache config", func() {
		cachePath := filepath.Join(dir, "cache.json")
		config := cache.DefaultConfig()
		config.Ways = 2
		Expect(config.SaveConfig(cachePath)).To(Succeed())

		_, err := execute("run", "--pattern", "random", "--cache-config", cachePath)
		Expect(err).To(MatchError(cache.ErrInvalidConfig))
	})
})
