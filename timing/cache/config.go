// Package cache provides a cycle-stepped, write-back, direct-mapped cache
// controller that refills and evicts lines through NASTI bursts.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/bits"
	"os"

	"github.com/sarchlab/minicache/nasti"
)

// ErrInvalidConfig is returned when a Config cannot describe a cache.
var ErrInvalidConfig = errors.New("invalid cache config")

// Config holds cache configuration parameters.
type Config struct {
	// XLen is the width of addresses and data words, 32 or 64.
	XLen int `json:"x_len"`
	// Sets is the number of sets.
	Sets int `json:"sets"`
	// Ways is the number of ways per set. Only 1 is supported.
	Ways int `json:"ways"`
	// BlockBytes is the size of a cache line in bytes.
	BlockBytes int `json:"block_bytes"`
	// Bus describes the memory-side bus.
	Bus nasti.Params `json:"bus"`
}

// DefaultConfig returns the 256-set, 16-byte-line, 32-bit cache on a 64-bit
// bus.
func DefaultConfig() Config {
	return Config{
		XLen:       32,
		Sets:       256,
		Ways:       1,
		BlockBytes: 16,
		Bus:        nasti.DefaultParams(),
	}
}

// LoadConfig loads a Config from a JSON file.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read cache config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("failed to parse cache config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a Config to a JSON file.
func (c Config) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize cache config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a buildable cache.
func (c Config) Validate() error {
	if c.XLen != 32 && c.XLen != 64 {
		return fmt.Errorf("%w: x_len %d must be 32 or 64", ErrInvalidConfig, c.XLen)
	}
	if c.Ways != 1 {
		return fmt.Errorf("%w: ways %d, only direct-mapped caches are supported",
			ErrInvalidConfig, c.Ways)
	}
	if !isPow2(c.Sets) {
		return fmt.Errorf("%w: sets %d must be a power of two", ErrInvalidConfig, c.Sets)
	}
	if !isPow2(c.BlockBytes) {
		return fmt.Errorf("%w: block_bytes %d must be a power of two",
			ErrInvalidConfig, c.BlockBytes)
	}
	if err := c.Bus.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.BlockBytes < c.WordBytes() {
		return fmt.Errorf("%w: block_bytes %d is smaller than a word",
			ErrInvalidConfig, c.BlockBytes)
	}
	if c.BlockBytes < c.Bus.DataBytes() {
		return fmt.Errorf("%w: block_bytes %d is smaller than a bus beat",
			ErrInvalidConfig, c.BlockBytes)
	}
	if c.DataBeats() > 256 {
		return fmt.Errorf("%w: %d beats per block do not fit a burst",
			ErrInvalidConfig, c.DataBeats())
	}
	if c.TagLen() <= 0 {
		return fmt.Errorf("%w: no address bits left for the tag", ErrInvalidConfig)
	}
	if c.Bus.AddrBits < c.XLen {
		return fmt.Errorf("%w: bus addr_bits %d narrower than x_len %d",
			ErrInvalidConfig, c.Bus.AddrBits, c.XLen)
	}
	return nil
}

// WordBytes returns the number of bytes in a data word.
func (c Config) WordBytes() int {
	return c.XLen / 8
}

// Words returns the number of words in a block.
func (c Config) Words() int {
	return c.BlockBytes / c.WordBytes()
}

// DataBeats returns the number of bus beats in a block.
func (c Config) DataBeats() int {
	return c.BlockBytes * 8 / c.Bus.DataBits
}

// SetLen returns the number of address bits that select the set.
func (c Config) SetLen() int {
	return log2(c.Sets)
}

// BlockLen returns the number of address bits of the block offset.
func (c Config) BlockLen() int {
	return log2(c.BlockBytes)
}

// ByteOffsetLen returns the number of address bits that select a byte in a
// word.
func (c Config) ByteOffsetLen() int {
	return log2(c.WordBytes())
}

// TagLen returns the number of address bits of the tag.
func (c Config) TagLen() int {
	return c.XLen - c.SetLen() - c.BlockLen()
}

// Index returns the set an address maps to.
func (c Config) Index(addr uint64) int {
	return int((addr >> c.BlockLen()) & uint64(c.Sets-1))
}

// Tag returns the tag of an address.
func (c Config) Tag(addr uint64) uint64 {
	return (addr & c.WordMask()) >> (c.SetLen() + c.BlockLen())
}

// WordOffset returns the index of the addressed word within its block.
func (c Config) WordOffset(addr uint64) int {
	return int((addr >> c.ByteOffsetLen()) & uint64(c.Words()-1))
}

// BlockAddr returns the bus address of the block with the given tag in the
// given set.
func (c Config) BlockAddr(tag uint64, set int) uint64 {
	return ((tag << c.SetLen()) | uint64(set)) << c.BlockLen()
}

// WordMask returns the mask of the valid bits of a data word.
func (c Config) WordMask() uint64 {
	if c.XLen == 64 {
		return ^uint64(0)
	}

	return (uint64(1) << c.XLen) - 1
}

// LaneMask returns the mask of the valid bits of a byte mask.
func (c Config) LaneMask() uint64 {
	return (uint64(1) << c.WordBytes()) - 1
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func log2(n int) int {
	return bits.TrailingZeros(uint(n))
}
