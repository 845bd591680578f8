// Package mem provides the memory on the far side of the bus: a sparse
// backing store and a bus model that serves bursts from it.
package mem

const pageBits = 12

const pageSize = 1 << pageBits

// Memory is a sparse, little-endian, byte-addressable memory. Bytes that
// were never written read as zero.
type Memory struct {
	pages map[uint64][]byte
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{pages: make(map[uint64][]byte)}
}

func (m *Memory) page(addr uint64, create bool) []byte {
	p, ok := m.pages[addr>>pageBits]
	if !ok && create {
		p = make([]byte, pageSize)
		m.pages[addr>>pageBits] = p
	}

	return p
}

// Read8 reads one byte.
func (m *Memory) Read8(addr uint64) byte {
	p := m.page(addr, false)
	if p == nil {
		return 0
	}

	return p[addr&(pageSize-1)]
}

// Write8 writes one byte.
func (m *Memory) Write8(addr uint64, value byte) {
	m.page(addr, true)[addr&(pageSize-1)] = value
}

// ReadN reads n bytes, n at most 8, as a little-endian value.
func (m *Memory) ReadN(addr uint64, n int) uint64 {
	var v uint64
	for i := 0; i < n; i++ {
		v |= uint64(m.Read8(addr+uint64(i))) << (8 * i)
	}

	return v
}

// WriteN writes the low n bytes of value, n at most 8, in little-endian
// order.
func (m *Memory) WriteN(addr uint64, n int, value uint64) {
	for i := 0; i < n; i++ {
		m.Write8(addr+uint64(i), byte(value>>(8*i)))
	}
}

// Read32 reads a 32-bit word.
func (m *Memory) Read32(addr uint64) uint32 {
	return uint32(m.ReadN(addr, 4))
}

// Write32 writes a 32-bit word.
func (m *Memory) Write32(addr uint64, value uint32) {
	m.WriteN(addr, 4, uint64(value))
}

// Read64 reads a 64-bit word.
func (m *Memory) Read64(addr uint64) uint64 {
	return m.ReadN(addr, 8)
}

// Write64 writes a 64-bit word.
func (m *Memory) Write64(addr uint64, value uint64) {
	m.WriteN(addr, 8, value)
}

// Clone returns an independent copy of the memory.
func (m *Memory) Clone() *Memory {
	c := NewMemory()
	for k, p := range m.pages {
		c.pages[k] = append([]byte(nil), p...)
	}

	return c
}

// Reset clears the memory.
func (m *Memory) Reset() {
	m.pages = make(map[uint64][]byte)
}
