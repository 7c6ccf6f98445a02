package crawler

import "github.com/namesweep/namesweep/internal/model"

// Sibling priority offsets. The pivot child enqueues at priority
// len(prefix); other branches are pushed back by these offsets so the
// guaranteed-productive path always dequeues first, and punctuation
// branches trail alphanumeric ones.
const (
	primaryPriorityOffset = 5
	specialPriorityOffset = 10
)

// Enqueue is one child prefix the expansion wants queued.
type Enqueue struct {
	Prefix   string
	Priority int
}

// Expand interprets one query response and decides which child
// prefixes must still be explored. It is a pure function: callers
// apply deduplication against the explored set and the frontier.
//
// Every suggestion is recorded as a discovered name. A page shorter
// than maxResults is known-complete, so no children are produced;
// truncation is the only incompleteness signal. For a full page the
// pivot rule applies: the character following the prefix in the
// lexicographically last suggestion starts the highest-priority child,
// and only charset characters strictly greater than it need sibling
// branches; everything earlier is already fully present in the sorted
// page. When the last suggestion is the prefix itself the service
// cannot name a pivot, and when the pivot falls outside the charset
// the ordering argument no longer holds; both cases fall back to
// enqueuing every charset extension.
func Expand(prefix string, suggestions []string, maxResults int, charset model.Charset) (names []string, children []Enqueue) {
	names = suggestions

	if len(suggestions) < maxResults || maxResults <= 0 {
		return names, nil
	}

	last := suggestions[len(suggestions)-1]
	if len(last) > len(prefix) {
		pivot := last[len(prefix)]
		if !charset.Contains(pivot) {
			return names, fullFanout(prefix, charset)
		}

		children = append(children, Enqueue{
			Prefix:   prefix + string(pivot),
			Priority: len(prefix),
		})
		for i := 0; i < len(charset.All()); i++ {
			c := charset.All()[i]
			if c <= pivot {
				continue
			}
			children = append(children, Enqueue{
				Prefix:   prefix + string(c),
				Priority: len(prefix) + offsetFor(charset, c),
			})
		}
		return names, children
	}

	// The prefix is itself a complete name and the page maximum; no
	// pivot hint is available.
	return names, fullFanout(prefix, charset)
}

// fullFanout enqueues every single-character extension of prefix.
func fullFanout(prefix string, charset model.Charset) []Enqueue {
	all := charset.All()
	children := make([]Enqueue, 0, len(all))
	for i := 0; i < len(all); i++ {
		c := all[i]
		children = append(children, Enqueue{
			Prefix:   prefix + string(c),
			Priority: len(prefix) + offsetFor(charset, c),
		})
	}
	return children
}

func offsetFor(charset model.Charset, c byte) int {
	if charset.IsSpecial(c) {
		return specialPriorityOffset
	}
	return primaryPriorityOffset
}
