package mem_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/minicache/timing/mem"
)

var _ = Describe("Memory", func() {
	var m *mem.Memory

	BeforeEach(func() {
		m = mem.NewMemory()
	})

	It("should read zero where nothing was written", func() {
		Expect(m.Read64(0xFFFF_0000)).To(BeZero())
	})

	It("should store little-endian words", func() {
		m.Write32(0x100, 0x11223344)

		Expect(m.Read8(0x100)).To(Equal(byte(0x44)))
		Expect(m.Read8(0x103)).To(Equal(byte(0x11)))
		Expect(m.ReadN(0x101, 2)).To(Equal(uint64(0x2233)))
	})

	It("should read and write across a page boundary", func() {
		m.Write64(0xFFC, 0x8877665544332211)

		Expect(m.Read64(0xFFC)).To(Equal(uint64(0x8877665544332211)))
		Expect(m.Read32(0x1000)).To(Equal(uint32(0x88776655)))
	})

	It("should clone into an independent copy", func() {
		m.Write32(0x0, 1)
		c := m.Clone()
		c.Write32(0x0, 2)

		Expect(m.Read32(0x0)).To(Equal(uint32(1)))
		Expect(c.Read32(0x0)).To(Equal(uint32(2)))
	})

	It("should clear on reset", func() {
		m.Write32(0x0, 1)
		m.Reset()

		Expect(m.Read32(0x0)).To(BeZero())
	})
})
