package crawler

import (
	"container/heap"
	"sync"
	"time"
)

// Item is one pending prefix in the frontier. Lower priority values
// dequeue first; seq breaks ties in insertion order so equal-priority
// items leave FIFO.
type Item struct {
	Priority int
	Prefix   string
	seq      uint64
}

// Frontier is a concurrent priority queue of pending prefixes with
// insertion-time deduplication. Push never blocks; Pop blocks up to a
// bounded timeout so workers can detect quiescence instead of hanging
// on an empty queue. Capacity is unbounded: the keyspace is finite.
type Frontier struct {
	mu      sync.Mutex
	items   itemHeap
	seen    map[string]struct{}
	nextSeq uint64
	notify  chan struct{}
}

// NewFrontier returns an empty frontier.
func NewFrontier() *Frontier {
	return &Frontier{
		seen:   make(map[string]struct{}),
		notify: make(chan struct{}, 1),
	}
}

// Push enqueues prefix at the given priority. Returns false without
// enqueuing when the prefix was already pushed or marked seen; a
// prefix enters the frontier at most once per run.
func (f *Frontier) Push(prefix string, priority int) bool {
	f.mu.Lock()
	if _, dup := f.seen[prefix]; dup {
		f.mu.Unlock()
		return false
	}
	f.seen[prefix] = struct{}{}
	heap.Push(&f.items, Item{Priority: priority, Prefix: prefix, seq: f.nextSeq})
	f.nextSeq++
	f.mu.Unlock()

	select {
	case f.notify <- struct{}{}:
	default:
	}
	return true
}

// MarkSeen records prefixes as already handled so later Push calls for
// them are suppressed. Used when resuming from a checkpoint, where the
// explored set must not re-enter the queue.
func (f *Frontier) MarkSeen(prefixes ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range prefixes {
		f.seen[p] = struct{}{}
	}
}

// Seen reports whether prefix has ever been pushed or marked seen.
func (f *Frontier) Seen(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.seen[prefix]
	return ok
}

// Pop removes and returns the highest-priority item. It blocks up to
// timeout when the frontier is empty and then returns ok=false.
func (f *Frontier) Pop(timeout time.Duration) (Item, bool) {
	deadline := time.Now().Add(timeout)
	for {
		f.mu.Lock()
		if len(f.items) > 0 {
			item := heap.Pop(&f.items).(Item)
			f.mu.Unlock()
			return item, true
		}
		f.mu.Unlock()

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return Item{}, false
		}
		t := time.NewTimer(remaining)
		select {
		case <-f.notify:
			t.Stop()
		case <-t.C:
			return Item{}, false
		}
	}
}

// Len returns the number of queued items.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// itemHeap orders items by (priority, seq).
type itemHeap []Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].Priority != h[j].Priority {
		return h[i].Priority < h[j].Priority
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(Item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
