package model

import "strings"

// Charset constants shared by the v1-v3 autocomplete endpoints.
// The primary set covers alphanumeric names; the special set holds
// punctuation that some namespaces allow. Backslash and both quote
// characters are excluded from the special set because they cannot
// appear unescaped in a query string.
const (
	LowercaseCharset    = "abcdefghijklmnopqrstuvwxyz"
	AlphanumericCharset = "0123456789abcdefghijklmnopqrstuvwxyz"
	PunctuationCharset  = "!#$%&()*+,-./:;<=>?@[]^_`{|}~"
)

// Charset is the ordered set of characters a namespace may draw from.
// The total order over prefixes is lexicographic over Primary followed
// by Special; characters appearing earlier in either string sort lower.
//
// Primary characters are explored before Special characters: the
// expansion algorithm enqueues special-character branches at a lower
// priority because real namespaces are overwhelmingly alphanumeric.
type Charset struct {
	// Primary holds the alphanumeric characters, in sort order.
	Primary string

	// Special holds optional punctuation characters, in sort order.
	// Empty when the namespace is known to be alphanumeric only.
	Special string
}

// DefaultCharset returns the charset matching an autocomplete API version.
// The v1 namespace is lowercase-only; v2 and v3 include digits.
func DefaultCharset(apiVersion int) Charset {
	if apiVersion <= 1 {
		return Charset{Primary: LowercaseCharset}
	}
	return Charset{Primary: AlphanumericCharset}
}

// All returns every character in exploration order: primary first,
// then special.
func (c Charset) All() string {
	return c.Primary + c.Special
}

// Contains reports whether ch is a member of the charset.
func (c Charset) Contains(ch byte) bool {
	return strings.IndexByte(c.Primary, ch) >= 0 || strings.IndexByte(c.Special, ch) >= 0
}

// IsSpecial reports whether ch belongs to the special (punctuation) set.
func (c Charset) IsSpecial(ch byte) bool {
	return strings.IndexByte(c.Special, ch) >= 0
}

// Empty reports whether the charset has no characters at all.
func (c Charset) Empty() bool {
	return c.Primary == "" && c.Special == ""
}
