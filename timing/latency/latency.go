// Package latency provides the timing model of the memory on the far side of
// the bus.
//
// The latency values can be configured via TimingConfig, and loaded from and
// saved to JSON files.
package latency

import (
	"github.com/sarchlab/minicache/nasti"
)

// Table provides burst latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the number of cycles the memory waits before answering a
// burst of the given kind: until the first data beat for a read, until the
// response for a write.
func (t *Table) GetLatency(kind nasti.Kind) uint64 {
	switch kind {
	case nasti.KindRead:
		return t.config.ReadLatency
	case nasti.KindWrite:
		return t.config.WriteLatency
	default:
		return 0
	}
}

// GetMinBurstCycles returns the fewest cycles a burst of the given kind and
// length occupies the bus, from the address handshake to the last handshake,
// when no channel stalls.
func (t *Table) GetMinBurstCycles(kind nasti.Kind, beats int) uint64 {
	// Address, data beats, and for writes the response.
	cycles := 1 + uint64(beats) + t.GetLatency(kind)
	if kind == nasti.KindWrite {
		cycles++
	}

	return cycles
}

// StallPercent returns the chance, in percent, that a channel stalls in a
// given cycle.
func (t *Table) StallPercent() int {
	return t.config.StallPercent
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
