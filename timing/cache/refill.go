package cache

import "github.com/sarchlab/minicache/nasti"

// RefillBuffer collects the beats of a read burst until the whole block has
// arrived.
type RefillBuffer struct {
	beats    []uint64
	beatBits int
	wordBits int
}

// NewRefillBuffer creates a buffer for one block of the given geometry.
func NewRefillBuffer(config Config) *RefillBuffer {
	return &RefillBuffer{
		beats:    make([]uint64, config.DataBeats()),
		beatBits: config.Bus.DataBits,
		wordBits: config.XLen,
	}
}

// Set stores the beat at position i.
func (r *RefillBuffer) Set(i int, data uint64) {
	r.beats[i] = data
}

// Beats returns a copy of the buffered beats.
func (r *RefillBuffer) Beats() []uint64 {
	return append([]uint64(nil), r.beats...)
}

// Block returns the buffered block as cache words.
func (r *RefillBuffer) Block() []uint64 {
	return nasti.Repack(r.beats, r.beatBits, r.wordBits)
}
