package cache

import "fmt"

// Meta is the metadata of one cache line.
type Meta struct {
	Tag   uint64
	Valid bool
	Dirty bool
}

// Store holds the tags, valid bits, dirty bits and data of every set. Data
// is kept as one word-indexed array; byte-masked writes go through
// MaskedWrite.
type Store struct {
	sets      int
	words     int
	wordBytes int

	tags  []uint64
	valid []bool
	dirty []bool
	data  []uint64
}

// NewStore creates an empty store for the given geometry.
func NewStore(config Config) *Store {
	return &Store{
		sets:      config.Sets,
		words:     config.Words(),
		wordBytes: config.WordBytes(),
		tags:      make([]uint64, config.Sets),
		valid:     make([]bool, config.Sets),
		dirty:     make([]bool, config.Sets),
		data:      make([]uint64, config.Sets*config.Words()),
	}
}

func (s *Store) check(set int) {
	if set < 0 || set >= s.sets {
		panic(fmt.Sprintf("cache: set %d out of range [0, %d)", set, s.sets))
	}
}

// Meta returns the metadata of a set.
func (s *Store) Meta(set int) Meta {
	s.check(set)

	return Meta{
		Tag:   s.tags[set],
		Valid: s.valid[set],
		Dirty: s.dirty[set],
	}
}

// Hit reports whether the set holds a valid line with the given tag.
func (s *Store) Hit(set int, tag uint64) bool {
	s.check(set)
	return s.valid[set] && s.tags[set] == tag
}

// Word returns one word of a line.
func (s *Store) Word(set, word int) uint64 {
	s.check(set)
	return s.data[set*s.words+word]
}

// Line returns a copy of the words of a line.
func (s *Store) Line(set int) []uint64 {
	s.check(set)

	line := make([]uint64, s.words)
	copy(line, s.data[set*s.words:(set+1)*s.words])

	return line
}

// WriteWord merges data into one word under a byte mask and marks the line
// dirty. The line must already be valid.
func (s *Store) WriteWord(set, word int, data, mask uint64) {
	s.check(set)

	i := set*s.words + word
	s.data[i] = MaskedWrite(s.data[i], data, mask, s.wordBytes)
	s.dirty[set] = s.valid[set]
}

// Fill installs a whole line. The line becomes valid and takes the given
// dirty state.
func (s *Store) Fill(set int, tag uint64, line []uint64, dirty bool) {
	s.check(set)
	if len(line) != s.words {
		panic(fmt.Sprintf("cache: line of %d words, want %d", len(line), s.words))
	}

	copy(s.data[set*s.words:], line)
	s.tags[set] = tag
	s.valid[set] = true
	s.dirty[set] = dirty
}

// Invalidate drops a line without writing it back.
func (s *Store) Invalidate(set int) {
	s.check(set)
	s.valid[set] = false
	s.dirty[set] = false
}

// CheckInvariants verifies that no line is dirty without being valid.
func (s *Store) CheckInvariants() error {
	for i := range s.sets {
		if s.dirty[i] && !s.valid[i] {
			return fmt.Errorf("set %d is dirty but not valid", i)
		}
	}

	return nil
}

// MaskedWrite returns old with the bytes selected by mask replaced by the
// corresponding bytes of data. Bit i of mask selects byte i of the word.
func MaskedWrite(old, data, mask uint64, wordBytes int) uint64 {
	var bitMask uint64
	for i := 0; i < wordBytes; i++ {
		if mask&(1<<i) != 0 {
			bitMask |= uint64(0xFF) << (8 * i)
		}
	}

	return (old &^ bitMask) | (data & bitMask)
}
