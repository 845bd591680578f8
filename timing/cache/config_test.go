package cache_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/minicache/nasti"
	"github.com/sarchlab/minicache/timing/cache"
)

var _ = Describe("Config", func() {
	It("should derive the address split of the default cache", func() {
		config := cache.DefaultConfig()
		Expect(config.Validate()).To(Succeed())

		Expect(config.WordBytes()).To(Equal(4))
		Expect(config.Words()).To(Equal(4))
		Expect(config.DataBeats()).To(Equal(2))
		Expect(config.SetLen()).To(Equal(8))
		Expect(config.BlockLen()).To(Equal(4))
		Expect(config.ByteOffsetLen()).To(Equal(2))
		Expect(config.TagLen()).To(Equal(20))
		Expect(config.WordMask()).To(Equal(uint64(0xFFFFFFFF)))
		Expect(config.LaneMask()).To(Equal(uint64(0xF)))
	})

	It("should split an address into tag, set and word", func() {
		config := cache.DefaultConfig()
		addr := uint64(0x12345678)

		Expect(config.Tag(addr)).To(Equal(uint64(0x12345)))
		Expect(config.Index(addr)).To(Equal(0x67))
		Expect(config.WordOffset(addr)).To(Equal(2))
		Expect(config.BlockAddr(0x12345, 0x67)).To(Equal(uint64(0x12345670)))
	})

	It("should cover the full word for a 64-bit cache", func() {
		config := cache.DefaultConfig()
		config.XLen = 64
		config.Bus.AddrBits = 64

		Expect(config.Validate()).To(Succeed())
		Expect(config.WordMask()).To(Equal(^uint64(0)))
		Expect(config.LaneMask()).To(Equal(uint64(0xFF)))
		Expect(config.Words()).To(Equal(2))
	})

	DescribeTable("should reject malformed geometry",
		func(mutate func(*cache.Config)) {
			config := cache.DefaultConfig()
			mutate(&config)
			Expect(config.Validate()).To(MatchError(cache.ErrInvalidConfig))
		},
		Entry("x_len not 32 or 64", func(c *cache.Config) { c.XLen = 16 }),
		Entry("more than one way", func(c *cache.Config) { c.Ways = 2 }),
		Entry("non-power-of-two sets", func(c *cache.Config) { c.Sets = 100 }),
		Entry("zero sets", func(c *cache.Config) { c.Sets = 0 }),
		Entry("non-power-of-two block", func(c *cache.Config) { c.BlockBytes = 24 }),
		Entry("block smaller than a word", func(c *cache.Config) {
			c.BlockBytes = 2
		}),
		Entry("block smaller than a beat", func(c *cache.Config) {
			c.BlockBytes = 4
		}),
		Entry("bad bus width", func(c *cache.Config) { c.Bus.DataBits = 48 }),
		Entry("no tag bits", func(c *cache.Config) {
			c.Sets = 1 << 20
			c.BlockBytes = 4096
		}),
		Entry("narrow bus address", func(c *cache.Config) { c.Bus.AddrBits = 16 }),
	)

	It("should round-trip through a file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "cache.json")
		config := cache.DefaultConfig()
		config.Sets = 64
		config.Bus = nasti.Params{DataBits: 32, AddrBits: 32, IDBits: 4}

		Expect(config.SaveConfig(path)).To(Succeed())

		loaded, err := cache.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded).To(Equal(config))
	})

	It("should fill missing fields with defaults", func() {
		path := filepath.Join(GinkgoT().TempDir(), "cache.json")
		Expect(os.WriteFile(path, []byte(`{"sets": 16}`), 0644)).To(Succeed())

		loaded, err := cache.LoadConfig(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Sets).To(Equal(16))
		Expect(loaded.BlockBytes).To(Equal(16))
	})

	It("should fail on a missing or malformed file", func() {
		dir := GinkgoT().TempDir()
		_, err := cache.LoadConfig(filepath.Join(dir, "missing.json"))
		Expect(err).To(HaveOccurred())

		path := filepath.Join(dir, "bad.json")
		Expect(os.WriteFile(path, []byte("{"), 0644)).To(Succeed())
		_, err = cache.LoadConfig(path)
		Expect(err).To(HaveOccurred())
	})
})
