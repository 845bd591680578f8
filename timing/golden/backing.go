package golden

import (
	"github.com/sarchlab/minicache/nasti"
	"github.com/sarchlab/minicache/timing/mem"
)

var _ BackingStore = (*MemoryBacking)(nil)

// MemoryBacking wraps mem.Memory as a BackingStore and records every block
// transfer as the burst that would carry it on the bus.
type MemoryBacking struct {
	memory *mem.Memory
	bus    nasti.Params

	transactions []nasti.Transaction
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *mem.Memory, bus nasti.Params) *MemoryBacking {
	return &MemoryBacking{memory: memory, bus: bus}
}

// Read fetches data from the backing memory.
func (m *MemoryBacking) Read(addr uint64, size int) []byte {
	data := make([]byte, size)
	for i := 0; i < size; i++ {
		data[i] = m.memory.Read8(addr + uint64(i))
	}

	m.record(nasti.KindRead, addr, data)

	return data
}

// Write stores data to the backing memory.
func (m *MemoryBacking) Write(addr uint64, data []byte) {
	for i, b := range data {
		m.memory.Write8(addr+uint64(i), b)
	}

	m.record(nasti.KindWrite, addr, data)
}

// Transactions returns the recorded bursts.
func (m *MemoryBacking) Transactions() []nasti.Transaction {
	return m.transactions
}

func (m *MemoryBacking) record(kind nasti.Kind, addr uint64, data []byte) {
	beatBytes := m.bus.DataBytes()
	beats := make([]uint64, len(data)/beatBytes)
	for i := range beats {
		beats[i] = extractData(data, uint64(i*beatBytes), beatBytes)
	}

	m.transactions = append(m.transactions, nasti.Transaction{
		Kind: kind,
		Addr: addr,
		Size: m.bus.BurstSize(),
		Len:  uint8(len(beats) - 1),
		Data: beats,
	})
}
