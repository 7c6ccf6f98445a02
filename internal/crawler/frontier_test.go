package crawler

import (
	"sync"
	"testing"
	"time"
)

func TestFrontierPriorityOrder(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.Push("low", 10)
	f.Push("high", 1)
	f.Push("mid", 5)

	want := []string{"high", "mid", "low"}
	for _, w := range want {
		item, ok := f.Pop(time.Second)
		if !ok {
			t.Fatalf("Pop returned ok=false, want item %q", w)
		}
		if item.Prefix != w {
			t.Errorf("Pop = %q, want %q", item.Prefix, w)
		}
	}
}

func TestFrontierEqualPrioritiesAreFIFO(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	pushed := []string{"a", "b", "c", "d", "e"}
	for _, p := range pushed {
		f.Push(p, 3)
	}

	for _, want := range pushed {
		item, ok := f.Pop(time.Second)
		if !ok {
			t.Fatal("Pop returned ok=false on a non-empty frontier")
		}
		if item.Prefix != want {
			t.Errorf("Pop = %q, want %q (insertion order)", item.Prefix, want)
		}
	}
}

func TestFrontierDeduplicatesOnPush(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	if !f.Push("aa", 1) {
		t.Error("first Push = false, want true")
	}
	if f.Push("aa", 2) {
		t.Error("duplicate Push = true, want false")
	}
	if got := f.Len(); got != 1 {
		t.Errorf("Len = %d, want 1", got)
	}

	// The item stays dead even after it has been popped.
	if _, ok := f.Pop(time.Second); !ok {
		t.Fatal("Pop returned ok=false")
	}
	if f.Push("aa", 1) {
		t.Error("Push after pop = true, want false")
	}
}

func TestFrontierMarkSeen(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	f.MarkSeen("aa", "ab")

	if f.Push("aa", 1) {
		t.Error("Push of a seen prefix = true, want false")
	}
	if !f.Seen("ab") {
		t.Error("Seen(ab) = false, want true")
	}
	if f.Seen("ac") {
		t.Error("Seen(ac) = true, want false")
	}
	if got := f.Len(); got != 0 {
		t.Errorf("Len = %d, want 0", got)
	}
}

func TestFrontierPopTimesOutWhenEmpty(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	start := time.Now()
	_, ok := f.Pop(20 * time.Millisecond)
	if ok {
		t.Fatal("Pop on empty frontier = ok, want timeout")
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("Pop returned after %v, want at least the timeout", elapsed)
	}
}

func TestFrontierPopWakesOnPush(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Push("aa", 1)
	}()

	item, ok := f.Pop(2 * time.Second)
	if !ok {
		t.Fatal("Pop timed out waiting for a concurrent push")
	}
	if item.Prefix != "aa" {
		t.Errorf("Pop = %q, want %q", item.Prefix, "aa")
	}
}

func TestFrontierConcurrentPushPop(t *testing.T) {
	t.Parallel()

	f := NewFrontier()
	const producers = 4
	const perProducer = 50

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				f.Push(string(rune('a'+p))+string(rune('a'+i%26))+string(rune('a'+i/26)), i)
			}
		}(p)
	}
	wg.Wait()

	seen := make(map[string]struct{})
	for {
		item, ok := f.Pop(50 * time.Millisecond)
		if !ok {
			break
		}
		if _, dup := seen[item.Prefix]; dup {
			t.Fatalf("prefix %q popped twice", item.Prefix)
		}
		seen[item.Prefix] = struct{}{}
	}

	if len(seen) != producers*perProducer {
		t.Errorf("popped %d distinct prefixes, want %d", len(seen), producers*perProducer)
	}
}
