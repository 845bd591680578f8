package cache

// Statistics holds cache performance statistics.
type Statistics struct {
	Cycles     uint64 `json:"cycles"`
	Reads      uint64 `json:"reads"`
	Writes     uint64 `json:"writes"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
	Writebacks uint64 `json:"writebacks"`
	Refills    uint64 `json:"refills"`
	Aborts     uint64 `json:"aborts"`
}

// HitRate returns the fraction of lookups that hit, or 0 before any lookup.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}
