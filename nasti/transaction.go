package nasti

import (
	"fmt"
	"slices"
	"strings"
)

// Kind tells read bursts from write bursts.
type Kind int

// Burst kinds.
const (
	KindRead Kind = iota
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Transaction is a completed burst as seen on the bus.
type Transaction struct {
	Kind Kind
	Addr uint64
	Size uint8
	Len  uint8
	// Data holds one entry per beat, in beat order.
	Data []uint64
}

// Equal reports whether two bursts carried the same address, shape and data.
func (t Transaction) Equal(o Transaction) bool {
	return t.Kind == o.Kind &&
		t.Addr == o.Addr &&
		t.Size == o.Size &&
		t.Len == o.Len &&
		slices.Equal(t.Data, o.Data)
}

func (t Transaction) String() string {
	words := make([]string, len(t.Data))
	for i, d := range t.Data {
		words[i] = fmt.Sprintf("%#x", d)
	}

	return fmt.Sprintf("%s addr=%#x size=%d len=%d data=[%s]",
		t.Kind, t.Addr, t.Size, t.Len, strings.Join(words, " "))
}

// Repack regroups little-endian words of fromBits each into words of toBits
// each. Both widths must be multiples of 8 and no wider than 64.
func Repack(words []uint64, fromBits, toBits int) []uint64 {
	fromBytes := fromBits / 8
	toBytes := toBits / 8

	buf := make([]byte, len(words)*fromBytes)
	for i, w := range words {
		for b := 0; b < fromBytes; b++ {
			buf[i*fromBytes+b] = byte(w >> (8 * b))
		}
	}

	out := make([]uint64, len(buf)/toBytes)
	for i := range out {
		for b := 0; b < toBytes; b++ {
			out[i] |= uint64(buf[i*toBytes+b]) << (8 * b)
		}
	}

	return out
}
