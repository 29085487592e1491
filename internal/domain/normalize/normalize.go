// Package normalize reconciles case variants of guild and player names.
package normalize

import (
	"strings"

	"github.com/okian/siegeboard/internal/domain/model"
)

// Names folds case-variant spellings of the same name into one entry.
//
// Entries are processed in insertion order. The spelling that survives is the
// one seen last, and its count is the sum over all variants. Every time a
// variant replaces the retained spelling, the old key is removed and the new
// one is appended, so the output order follows the last sighting of each
// name. The input is not modified.
func Names(counts *model.Counts) *model.Counts {
	out := model.NewCounts()
	retained := make(map[string]string, counts.Len())

	for _, p := range counts.Pairs() {
		lower := strings.ToLower(p.Name)

		prev, seen := retained[lower]
		if !seen {
			retained[lower] = p.Name
			out.Set(p.Name, p.Count)
			continue
		}

		prevCount, _ := out.Get(prev)
		out.Delete(prev)
		retained[lower] = p.Name
		out.Set(p.Name, prevCount+p.Count)
	}

	return out
}

// Equal reports whether a and b name the same guild or player.
func Equal(a, b string) bool {
	return strings.ToLower(a) == strings.ToLower(b)
}
