package benchmarks

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sarchlab/minicache/timing/cache"
	"github.com/sarchlab/minicache/timing/core"
	"github.com/sarchlab/minicache/timing/mem"
)

// Pattern generates a stream of accesses for a cache geometry.
type Pattern struct {
	// Name identifies the pattern
	Name string

	// Description explains what the pattern exercises
	Description string

	// Generate builds n accesses using rng for every random choice.
	Generate func(config cache.Config, n int, rng *rand.Rand) []core.Access
}

// GetPatterns returns all available traffic patterns.
func GetPatterns() []Pattern {
	return []Pattern{
		SequentialPattern(),
		ConflictPattern(),
		RandomPattern(),
		WriteHeavyPattern(),
	}
}

// PatternNames returns the names of all traffic patterns, sorted.
func PatternNames() []string {
	var names []string
	for _, p := range GetPatterns() {
		names = append(names, p.Name)
	}
	sort.Strings(names)

	return names
}

// GetPattern returns the pattern with the given name.
func GetPattern(name string) (Pattern, error) {
	for _, p := range GetPatterns() {
		if p.Name == name {
			return p, nil
		}
	}

	return Pattern{}, fmt.Errorf("unknown pattern %q, expected one of %v",
		name, PatternNames())
}

// SequentialPattern walks word by word through a region twice the size of the
// cache, reading the first pass and writing the second. Every line is first
// refilled clean and later evicted dirty.
func SequentialPattern() Pattern {
	return Pattern{
		Name:        "sequential",
		Description: "Word-by-word sweep, read pass then write pass",
		Generate: func(config cache.Config, n int, rng *rand.Rand) []core.Access {
			words := uint64(2 * config.Sets * config.Words())
			step := uint64(config.WordBytes())

			accesses := make([]core.Access, 0, n)
			for i := 0; i < n; i++ {
				addr := (uint64(i) % words) * step
				if (uint64(i)/words)%2 == 0 {
					accesses = append(accesses, read(addr))
				} else {
					accesses = append(accesses,
						write(addr, randomWord(config, rng), config.LaneMask()))
				}
			}

			return accesses
		},
	}
}

// ConflictPattern bounces between three tags on each of two sets, so that
// almost every access evicts the line the previous access to that set
// brought in.
func ConflictPattern() Pattern {
	return Pattern{
		Name:        "conflict",
		Description: "Three tags contending for each of two sets",
		Generate: func(config cache.Config, n int, rng *rand.Rand) []core.Access {
			sets := []int{0, 1}
			if config.Sets == 1 {
				sets = []int{0}
			}

			accesses := make([]core.Access, 0, n)
			for i := 0; i < n; i++ {
				set := sets[i%len(sets)]
				tag := uint64(1 + (i/len(sets))%3)
				addr := config.BlockAddr(tag, set) + randomWordOffset(config, rng)

				if rng.Intn(2) == 0 {
					accesses = append(accesses, read(addr))
				} else {
					accesses = append(accesses,
						write(addr, randomWord(config, rng), randomMask(config, rng)))
				}
			}

			return accesses
		},
	}
}

// RandomPattern issues reads and writes to random words of a region four
// times the size of the cache.
func RandomPattern() Pattern {
	return Pattern{
		Name:        "random",
		Description: "Uniformly random reads and writes over four cache sizes",
		Generate: func(config cache.Config, n int, rng *rand.Rand) []core.Access {
			accesses := make([]core.Access, 0, n)
			for i := 0; i < n; i++ {
				addr := randomAddr(config, 4, rng)
				if rng.Intn(2) == 0 {
					accesses = append(accesses, read(addr))
				} else {
					accesses = append(accesses,
						write(addr, randomWord(config, rng), randomMask(config, rng)))
				}
			}

			return accesses
		},
	}
}

// WriteHeavyPattern issues mostly partial writes over a region twice the
// size of the cache, with a read after every few writes to check the merge.
func WriteHeavyPattern() Pattern {
	return Pattern{
		Name:        "writeheavy",
		Description: "Partial writes with occasional read-back",
		Generate: func(config cache.Config, n int, rng *rand.Rand) []core.Access {
			accesses := make([]core.Access, 0, n)
			var last uint64
			for i := 0; i < n; i++ {
				if i%4 == 3 {
					accesses = append(accesses, read(last))
					continue
				}

				last = randomAddr(config, 2, rng)
				accesses = append(accesses,
					write(last, randomWord(config, rng), randomMask(config, rng)))
			}

			return accesses
		},
	}
}

// WithAborts marks each write of accesses for abort with the given
// probability. Reads are never aborted.
func WithAborts(accesses []core.Access, rate float64, rng *rand.Rand) []core.Access {
	if rate <= 0 {
		return accesses
	}

	for i := range accesses {
		if accesses[i].Req.IsWrite() && rng.Float64() < rate {
			accesses[i].Abort = true
		}
	}

	return accesses
}

// SeedMemory fills the region the patterns touch, four cache sizes from
// address zero, with random data.
func SeedMemory(config cache.Config, memory *mem.Memory, rng *rand.Rand) {
	bytes := uint64(4 * config.Sets * config.BlockBytes)
	for addr := uint64(0); addr < bytes; addr += 8 {
		memory.Write64(addr, rng.Uint64())
	}
}

func read(addr uint64) core.Access {
	return core.Access{Req: cache.Request{Valid: true, Addr: addr}}
}

func write(addr, data, mask uint64) core.Access {
	return core.Access{Req: cache.Request{Valid: true, Addr: addr, Data: data, Mask: mask}}
}

func randomWord(config cache.Config, rng *rand.Rand) uint64 {
	return rng.Uint64() & config.WordMask()
}

// randomMask returns a non-zero byte mask.
func randomMask(config cache.Config, rng *rand.Rand) uint64 {
	return uint64(1 + rng.Int63n(int64(config.LaneMask())))
}

func randomWordOffset(config cache.Config, rng *rand.Rand) uint64 {
	return uint64(rng.Intn(config.Words()) * config.WordBytes())
}

func randomAddr(config cache.Config, cacheSizes int, rng *rand.Rand) uint64 {
	words := cacheSizes * config.Sets * config.Words()
	return uint64(rng.Intn(words) * config.WordBytes())
}
