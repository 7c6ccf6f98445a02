package model

import (
	"maps"
	"sort"
	"sync"
)

// LengthStat counts queries issued for one prefix length and how many
// of them returned at least one suggestion. Diagnostic only; nothing
// in the crawl depends on these values.
type LengthStat struct {
	Success int `json:"success"`
	Queries int `json:"queries"`
}

// SuccessRate returns the fraction of queries that returned results,
// in the range [0, 1]. Zero when no queries were recorded.
func (s LengthStat) SuccessRate() float64 {
	if s.Queries == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Queries)
}

// LengthStats aggregates LengthStat values per prefix length.
// Safe for concurrent use by multiple workers.
type LengthStats struct {
	mu    sync.Mutex
	stats map[int]LengthStat
}

// NewLengthStats returns an empty LengthStats.
func NewLengthStats() *LengthStats {
	return &LengthStats{stats: make(map[int]LengthStat)}
}

// Record counts one query for the given prefix length. success is
// true when the query returned at least one suggestion.
func (ls *LengthStats) Record(length int, success bool) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	s := ls.stats[length]
	s.Queries++
	if success {
		s.Success++
	}
	ls.stats[length] = s
}

// Snapshot returns a copy of the accumulated statistics.
func (ls *LengthStats) Snapshot() map[int]LengthStat {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return maps.Clone(ls.stats)
}

// Restore replaces the accumulated statistics, used when resuming
// from a checkpoint.
func (ls *LengthStats) Restore(stats map[int]LengthStat) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	ls.stats = make(map[int]LengthStat, len(stats))
	maps.Copy(ls.stats, stats)
}

// Lengths returns the recorded prefix lengths in ascending order.
func (ls *LengthStats) Lengths() []int {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	lengths := make([]int, 0, len(ls.stats))
	for l := range ls.stats {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)
	return lengths
}
