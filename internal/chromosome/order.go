// Package chromosome orders and filters chromosome names.
package chromosome

import (
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

const prefix = "chr"

var (
	collatorMu sync.Mutex
	collator   = collate.New(language.Und)
)

// Compare orders chromosome names: numbered chromosomes first in numeric
// order, then the rest by locale-aware comparison. The "chr" prefix is
// ignored. It returns 0 only for identical names.
func Compare(a, b string) int {
	if a == b {
		return 0
	}
	ra := strings.TrimPrefix(a, prefix)
	rb := strings.TrimPrefix(b, prefix)
	numA, numB := isDigits(ra), isDigits(rb)

	var c int
	switch {
	case numA && numB:
		c = compareNumeric(ra, rb)
	case numA:
		return -1
	case numB:
		return 1
	default:
		collatorMu.Lock()
		c = collator.CompareString(ra, rb)
		collatorMu.Unlock()
	}
	if c != 0 {
		return c
	}
	// chr01 vs chr1, or names the collator treats as equal.
	return strings.Compare(a, b)
}

// SortNames sorts chromosome names in place by Compare.
func SortNames(names []string) {
	slices.SortStableFunc(names, Compare)
}

// SortBy sorts items in place by the chromosome name name(item) returns.
func SortBy[T any](items []T, name func(T) string) {
	slices.SortStableFunc(items, func(x, y T) int {
		return Compare(name(x), name(y))
	})
}

// IsPrimary reports whether name denotes a primary chromosome rather than
// an unplaced, unlocalized or random scaffold.
func IsPrimary(name string) bool {
	return !strings.Contains(name, "_") &&
		!strings.Contains(name, "Un") &&
		!strings.Contains(name, "random")
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// compareNumeric compares two decimal digit strings by value without
// parsing, so arbitrarily long numbers cannot overflow.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
