// Package golden provides a transaction-level reference model of the cache
// controller, built on the Akita cache directory. It services each request at
// once and records the bursts it would put on the bus, so that its responses
// and bus traffic can be compared against the cycle-stepped controller.
package golden

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"

	"github.com/sarchlab/minicache/nasti"
	"github.com/sarchlab/minicache/timing/cache"
	"github.com/sarchlab/minicache/timing/mem"
)

// Statistics holds reference model statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
}

// BackingStore interface for the memory behind the bus.
type BackingStore interface {
	// Read fetches one block.
	Read(addr uint64, size int) []byte
	// Write stores one block.
	Write(addr uint64, data []byte)
}

// Cache is the reference cache.
type Cache struct {
	// Configuration
	config cache.Config

	// Akita cache directory for tag/valid/dirty management. The directory
	// stores the block-aligned address as the tag.
	directory *akitacache.DirectoryImpl

	// Data storage, one block per set, flat.
	data []byte

	// Statistics
	stats Statistics

	backing *MemoryBacking
}

// New creates a reference cache in front of memory.
func New(config cache.Config, memory *mem.Memory) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			config.Sets,
			config.Ways,
			config.BlockBytes,
			akitacache.NewLRUVictimFinder(),
		),
		data:    make([]byte, config.Sets*config.BlockBytes),
		backing: NewMemoryBacking(memory, config.Bus),
	}, nil
}

// Config returns the cache configuration.
func (c *Cache) Config() cache.Config {
	return c.config
}

// Stats returns reference model statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// Transactions returns the bursts the model has issued, in issue order.
func (c *Cache) Transactions() []nasti.Transaction {
	return c.backing.Transactions()
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	addr &= c.config.WordMask()
	return addr &^ uint64(c.config.BlockBytes-1)
}

func (c *Cache) blockData(block *akitacache.Block) []byte {
	start := block.SetID * c.config.BlockBytes
	return c.data[start : start+c.config.BlockBytes]
}

// wordOffset returns the byte offset of the addressed word within its block.
func (c *Cache) wordOffset(addr uint64) uint64 {
	return uint64(c.config.WordOffset(addr) * c.config.WordBytes())
}

// Access services one request and returns the response data: the addressed
// word for a read, the word after merging for a write.
func (c *Cache) Access(req cache.Request) uint64 {
	if req.IsWrite() {
		return c.Write(req.Addr, req.Data, req.Mask)
	}

	return c.Read(req.Addr)
}

// Read performs a cache read operation.
func (c *Cache) Read(addr uint64) uint64 {
	c.stats.Reads++

	block := c.lookup(addr)
	if block == nil {
		c.stats.Misses++
		block = c.handleMiss(addr)
	} else {
		c.stats.Hits++
	}

	c.directory.Visit(block)

	return extractData(c.blockData(block), c.wordOffset(addr), c.config.WordBytes())
}

// Write performs a byte-masked cache write. Uses write-allocate policy: on
// miss, fetch the block first, then write.
func (c *Cache) Write(addr, data, mask uint64) uint64 {
	c.stats.Writes++

	block := c.lookup(addr)
	if block == nil {
		c.stats.Misses++
		block = c.handleMiss(addr)
	} else {
		c.stats.Hits++
	}

	blockData := c.blockData(block)
	offset := c.wordOffset(addr)
	storeMasked(blockData, offset, c.config.WordBytes(), data, mask)
	block.IsDirty = true
	c.directory.Visit(block)

	return extractData(blockData, offset, c.config.WordBytes())
}

func (c *Cache) lookup(addr uint64) *akitacache.Block {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		return block
	}

	return nil
}

// handleMiss evicts the resident block, writing it back if dirty, and
// refills it with the block holding addr.
func (c *Cache) handleMiss(addr uint64) *akitacache.Block {
	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		panic("golden: directory returned no victim")
	}

	victimData := c.blockData(victim)

	if victim.IsValid {
		c.stats.Evictions++

		if victim.IsDirty {
			c.stats.Writebacks++
			c.backing.Write(victim.Tag, victimData)
		}
	}

	copy(victimData, c.backing.Read(blockAddr, c.config.BlockBytes))

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false

	return victim
}

// Invalidate marks a cache line as invalid without writing it back.
func (c *Cache) Invalidate(addr uint64) {
	block := c.lookup(addr)
	if block != nil {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates them.
func (c *Cache) Flush() {
	sets := c.directory.GetSets()
	for _, set := range sets {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty {
				c.backing.Write(block.Tag, c.blockData(block))
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}

// Resident reports whether the block holding addr is cached, and whether it
// is dirty.
func (c *Cache) Resident(addr uint64) (valid, dirty bool) {
	block := c.lookup(addr)
	if block == nil {
		return false, false
	}

	return true, block.IsDirty
}

// extractData extracts a little-endian value of the given size.
func extractData(data []byte, offset uint64, size int) uint64 {
	if data == nil || int(offset)+size > len(data) {
		return 0
	}

	var result uint64
	for i := 0; i < size; i++ {
		result |= uint64(data[int(offset)+i]) << (i * 8)
	}
	return result
}

// storeMasked stores the bytes of value selected by mask.
func storeMasked(data []byte, offset uint64, size int, value, mask uint64) {
	if data == nil || int(offset)+size > len(data) {
		return
	}

	for i := 0; i < size; i++ {
		if mask&(1<<i) != 0 {
			data[int(offset)+i] = byte(value >> (i * 8))
		}
	}
}
