package internal

import (
	"iter"
	"strings"
)

// Normalize collapses all whitespace runs to single spaces and trims.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Chunks yields successive windows of length size over text, each window
// starting size-overlap characters after the previous one. The start
// index strictly increases even when overlap >= size, so the sequence is
// always finite. Empty input yields nothing. The sequence is restartable.
func Chunks(text string, size, overlap int) iter.Seq[string] {
	return func(yield func(string) bool) {
		n := len(text)
		if n == 0 || size <= 0 {
			return
		}
		for start := 0; start < n; {
			end := start + size
			if end > n {
				end = n
			}
			if !yield(text[start:end]) {
				return
			}
			if end >= n {
				return
			}
			next := end - overlap
			if next <= start {
				next = start + 1
			}
			start = next
		}
	}
}
