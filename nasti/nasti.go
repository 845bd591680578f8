// Package nasti describes the split-transaction burst bus that connects the
// cache to memory. The bus has five independent channels: read-address,
// write-address, write-data, write-response and read-data. Every channel uses
// a single-cycle ready/valid handshake; a beat is transferred only on a cycle
// where both are high.
package nasti

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidParams is returned when bus parameters cannot describe a bus.
var ErrInvalidParams = errors.New("invalid bus parameters")

// Params holds the widths of the bus fields.
type Params struct {
	// DataBits is the width of one data beat.
	DataBits int `json:"data_bits"`
	// AddrBits is the width of the address field.
	AddrBits int `json:"addr_bits"`
	// IDBits is the width of the transaction ID field.
	IDBits int `json:"id_bits"`
}

// DefaultParams returns the 64-bit data, 32-bit address bus.
func DefaultParams() Params {
	return Params{
		DataBits: 64,
		AddrBits: 32,
		IDBits:   5,
	}
}

// Validate checks that the bus widths are usable.
func (p Params) Validate() error {
	if p.DataBits < 8 || p.DataBits > 64 || !isPow2(p.DataBits) {
		return fmt.Errorf("%w: data_bits %d must be a power of two in [8, 64]",
			ErrInvalidParams, p.DataBits)
	}

	if p.AddrBits <= 0 || p.AddrBits > 64 {
		return fmt.Errorf("%w: addr_bits %d must be in [1, 64]",
			ErrInvalidParams, p.AddrBits)
	}

	if p.IDBits < 0 || p.IDBits > 32 {
		return fmt.Errorf("%w: id_bits %d must be in [0, 32]",
			ErrInvalidParams, p.IDBits)
	}

	return nil
}

// DataBytes returns the number of bytes carried by one data beat.
func (p Params) DataBytes() int {
	return p.DataBits / 8
}

// BurstSize returns the encoded size field, log2 of the beat width in bytes.
func (p Params) BurstSize() uint8 {
	return uint8(bits.TrailingZeros(uint(p.DataBytes())))
}

// DataMask returns the mask of the valid bits of one data beat.
func (p Params) DataMask() uint64 {
	if p.DataBits == 64 {
		return ^uint64(0)
	}

	return (uint64(1) << p.DataBits) - 1
}

// AddrBeat is the payload of the read-address and write-address channels.
type AddrBeat struct {
	ID   uint32
	Addr uint64
	// Size is log2 of the number of bytes per beat.
	Size uint8
	// Len is the number of beats in the burst minus one.
	Len uint8
}

// Beats returns the number of data beats the burst carries.
func (a AddrBeat) Beats() int {
	return int(a.Len) + 1
}

// WriteDataBeat is the payload of the write-data channel.
type WriteDataBeat struct {
	Data uint64
	Last bool
}

// WriteRespBeat is the payload of the write-response channel.
type WriteRespBeat struct {
	ID uint32
}

// ReadDataBeat is the payload of the read-data channel.
type ReadDataBeat struct {
	ID   uint32
	Data uint64
	Last bool
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}
