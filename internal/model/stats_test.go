package model

import (
	"sync"
	"testing"
)

func TestLengthStatSuccessRate(t *testing.T) {
	t.Parallel()

	if got := (LengthStat{}).SuccessRate(); got != 0 {
		t.Errorf("empty SuccessRate = %v, want 0", got)
	}
	if got := (LengthStat{Success: 3, Queries: 4}).SuccessRate(); got != 0.75 {
		t.Errorf("SuccessRate = %v, want 0.75", got)
	}
}

func TestLengthStatsRecordAndSnapshot(t *testing.T) {
	t.Parallel()

	ls := NewLengthStats()
	ls.Record(1, true)
	ls.Record(1, false)
	ls.Record(2, true)

	snap := ls.Snapshot()
	if got := snap[1]; got.Queries != 2 || got.Success != 1 {
		t.Errorf("snap[1] = %+v, want 2 queries / 1 success", got)
	}
	if got := snap[2]; got.Queries != 1 || got.Success != 1 {
		t.Errorf("snap[2] = %+v", got)
	}

	// The snapshot is a copy, detached from later writes.
	ls.Record(1, true)
	if got := snap[1].Queries; got != 2 {
		t.Errorf("snapshot mutated by later Record: %d", got)
	}
}

func TestLengthStatsRestore(t *testing.T) {
	t.Parallel()

	ls := NewLengthStats()
	ls.Record(5, true)
	ls.Restore(map[int]LengthStat{1: {Success: 9, Queries: 10}})

	snap := ls.Snapshot()
	if _, ok := snap[5]; ok {
		t.Error("Restore kept pre-existing entries")
	}
	if got := snap[1]; got.Success != 9 || got.Queries != 10 {
		t.Errorf("snap[1] = %+v", got)
	}

	lengths := ls.Lengths()
	if len(lengths) != 1 || lengths[0] != 1 {
		t.Errorf("Lengths = %v, want [1]", lengths)
	}
}

func TestLengthStatsConcurrentRecord(t *testing.T) {
	t.Parallel()

	ls := NewLengthStats()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ls.Record(i%4, i%2 == 0)
			}
		}()
	}
	wg.Wait()

	total := 0
	for _, s := range ls.Snapshot() {
		total += s.Queries
	}
	if total != 800 {
		t.Errorf("total queries = %d, want 800", total)
	}
}

func TestCrawlReportRates(t *testing.T) {
	t.Parallel()

	rep := &CrawlReport{TotalRequests: 100, TotalNames: 250}
	if got := rep.Efficiency(); got != 2.5 {
		t.Errorf("Efficiency = %v, want 2.5", got)
	}

	empty := &CrawlReport{}
	if got := empty.Efficiency(); got != 0 {
		t.Errorf("Efficiency with no requests = %v, want 0", got)
	}
}
