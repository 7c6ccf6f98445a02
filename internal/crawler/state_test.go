package crawler

import (
	"reflect"
	"sync"
	"testing"
)

func TestNameSetAddReturnsNewCount(t *testing.T) {
	t.Parallel()

	s := NewNameSet()
	if got := s.Add("apple", "banana"); got != 2 {
		t.Errorf("Add = %d, want 2", got)
	}
	if got := s.Add("apple", "cherry"); got != 1 {
		t.Errorf("Add with one duplicate = %d, want 1", got)
	}
	if got := s.Add(); got != 0 {
		t.Errorf("empty Add = %d, want 0", got)
	}
	if got := s.Len(); got != 3 {
		t.Errorf("Len = %d, want 3", got)
	}
}

func TestNameSetSorted(t *testing.T) {
	t.Parallel()

	s := NewNameSet()
	s.Add("cherry", "apple", "banana")

	want := []string{"apple", "banana", "cherry"}
	if got := s.Sorted(); !reflect.DeepEqual(got, want) {
		t.Errorf("Sorted = %v, want %v", got, want)
	}
}

func TestNameSetConcurrentAdd(t *testing.T) {
	t.Parallel()

	s := NewNameSet()
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s.Add(string(rune('a'+i%26)) + string(rune('a'+i/26)))
			}
		}()
	}
	wg.Wait()

	// 100 distinct two-character strings regardless of racing writers.
	if got := s.Len(); got != 100 {
		t.Errorf("Len = %d, want 100", got)
	}
}

func TestExploredSetAddOnce(t *testing.T) {
	t.Parallel()

	s := NewExploredSet()
	if !s.Add("aa") {
		t.Error("first Add = false, want true")
	}
	if s.Add("aa") {
		t.Error("second Add = true, want false")
	}
	if !s.Contains("aa") {
		t.Error("Contains(aa) = false, want true")
	}
	if s.Contains("ab") {
		t.Error("Contains(ab) = true, want false")
	}
	if got := s.Len(); got != 1 {
		t.Errorf("Len = %d, want 1", got)
	}
}

func TestExploredSetAllSorted(t *testing.T) {
	t.Parallel()

	s := NewExploredSet()
	for _, p := range []string{"b", "a", "ab", "aa"} {
		s.Add(p)
	}

	want := []string{"a", "aa", "ab", "b"}
	if got := s.All(); !reflect.DeepEqual(got, want) {
		t.Errorf("All = %v, want %v", got, want)
	}
}
