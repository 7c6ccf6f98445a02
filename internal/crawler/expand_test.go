package crawler

import (
	"reflect"
	"testing"

	"github.com/namesweep/namesweep/internal/model"
)

func TestExpand(t *testing.T) {
	t.Parallel()

	abc := model.Charset{Primary: "abc"}

	tests := []struct {
		name         string
		prefix       string
		suggestions  []string
		maxResults   int
		charset      model.Charset
		wantChildren []Enqueue
	}{
		{
			name:         "short page produces no children",
			prefix:       "a",
			suggestions:  []string{"aa"},
			maxResults:   2,
			charset:      abc,
			wantChildren: nil,
		},
		{
			name:         "empty page produces no children",
			prefix:       "z",
			suggestions:  nil,
			maxResults:   2,
			charset:      abc,
			wantChildren: nil,
		},
		{
			name:        "full page follows the pivot",
			prefix:      "a",
			suggestions: []string{"aa", "ab"},
			maxResults:  2,
			charset:     abc,
			wantChildren: []Enqueue{
				{Prefix: "ab", Priority: 1},
				{Prefix: "ac", Priority: 6},
			},
		},
		{
			name:        "early pivot queues all later siblings",
			prefix:      "b",
			suggestions: []string{"ba", "baa"},
			maxResults:  2,
			charset:     abc,
			wantChildren: []Enqueue{
				{Prefix: "ba", Priority: 1},
				{Prefix: "bb", Priority: 6},
				{Prefix: "bc", Priority: 6},
			},
		},
		{
			name:        "deeper prefix uses its length as pivot priority",
			prefix:      "ab",
			suggestions: []string{"aba", "abb"},
			maxResults:  2,
			charset:     abc,
			wantChildren: []Enqueue{
				{Prefix: "abb", Priority: 2},
				{Prefix: "abc", Priority: 7},
			},
		},
		{
			name:        "prefix equal to last suggestion fans out fully",
			prefix:      "a",
			suggestions: []string{"a"},
			maxResults:  1,
			charset:     abc,
			wantChildren: []Enqueue{
				{Prefix: "aa", Priority: 6},
				{Prefix: "ab", Priority: 6},
				{Prefix: "ac", Priority: 6},
			},
		},
		{
			name:        "pivot outside charset fans out fully",
			prefix:      "a",
			suggestions: []string{"a1", "a2"},
			maxResults:  2,
			charset:     model.Charset{Primary: "ab"},
			wantChildren: []Enqueue{
				{Prefix: "aa", Priority: 6},
				{Prefix: "ab", Priority: 6},
			},
		},
		{
			name:        "special characters trail primary siblings",
			prefix:      "a",
			suggestions: []string{"a"},
			maxResults:  1,
			charset:     model.Charset{Primary: "b", Special: "."},
			wantChildren: []Enqueue{
				{Prefix: "ab", Priority: 6},
				{Prefix: "a.", Priority: 11},
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			names, children := Expand(tt.prefix, tt.suggestions, tt.maxResults, tt.charset)

			if !reflect.DeepEqual(names, tt.suggestions) {
				t.Errorf("names = %v, want %v", names, tt.suggestions)
			}
			if !reflect.DeepEqual(children, tt.wantChildren) {
				t.Errorf("children = %v, want %v", children, tt.wantChildren)
			}
		})
	}
}

func TestExpandPivotChildAlwaysFirst(t *testing.T) {
	t.Parallel()

	// Whatever the sibling offsets are, the pivot child must carry the
	// lowest priority of all children so it dequeues first.
	charset := model.Charset{Primary: "abcdefghijklmnopqrstuvwxyz"}
	_, children := Expand("ca", []string{"cam", "can"}, 2, charset)

	if len(children) == 0 {
		t.Fatal("expected children for a full page")
	}
	pivot := children[0]
	if pivot.Prefix != "can" {
		t.Fatalf("pivot child = %q, want %q", pivot.Prefix, "can")
	}
	for _, child := range children[1:] {
		if child.Priority <= pivot.Priority {
			t.Errorf("sibling %q priority %d not after pivot priority %d",
				child.Prefix, child.Priority, pivot.Priority)
		}
	}
}
