package latency_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/minicache/timing/latency"
)

var _ = Describe("TimingConfig", func() {
	Describe("Default Config", func() {
		It("should create valid default config", func() {
			config := latency.DefaultTimingConfig()
			Expect(config.Validate()).To(Succeed())
			Expect(config.ReadLatency).To(Equal(uint64(4)))
			Expect(config.WriteLatency).To(Equal(uint64(2)))
		})
	})

	Describe("Validation", func() {
		It("should reject a stall rate that never lets a beat through", func() {
			config := latency.DefaultTimingConfig()
			config.StallPercent = 100
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject a negative stall rate", func() {
			config := latency.DefaultTimingConfig()
			config.StallPercent = -1
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should reject a zero frequency", func() {
			config := latency.DefaultTimingConfig()
			config.FreqGHz = 0
			Expect(config.Validate()).To(HaveOccurred())
		})

		It("should accept zero latencies", func() {
			config := latency.DefaultTimingConfig()
			config.ReadLatency = 0
			config.WriteLatency = 0
			Expect(config.Validate()).To(Succeed())
		})
	})

	Describe("Clone", func() {
		It("should create independent copy", func() {
			original := latency.DefaultTimingConfig()
			clone := original.Clone()

			clone.ReadLatency = 100

			Expect(original.ReadLatency).To(Equal(uint64(4)))
			Expect(clone.ReadLatency).To(Equal(uint64(100)))
		})
	})

	Describe("File Operations", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "latency-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should save and load config", func() {
			original := latency.DefaultTimingConfig()
			original.ReadLatency = 7
			original.StallPercent = 25

			path := filepath.Join(tempDir, "timing.json")
			Expect(original.SaveConfig(path)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ReadLatency).To(Equal(uint64(7)))
			Expect(loaded.StallPercent).To(Equal(25))
		})

		It("should keep defaults for fields missing from the file", func() {
			path := filepath.Join(tempDir, "partial.json")
			Expect(os.WriteFile(path, []byte(`{"read_latency": 9}`), 0644)).To(Succeed())

			loaded, err := latency.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ReadLatency).To(Equal(uint64(9)))
			Expect(loaded.WriteLatency).To(Equal(uint64(2)))
		})

		It("should return error for non-existent file", func() {
			_, err := latency.LoadConfig("/nonexistent/path/timing.json")
			Expect(err).To(HaveOccurred())
		})

		It("should return error for invalid JSON", func() {
			path := filepath.Join(tempDir, "invalid.json")
			err := os.WriteFile(path, []byte("not valid json"), 0644)
			Expect(err).NotTo(HaveOccurred())

			_, err = latency.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})
	})
})
