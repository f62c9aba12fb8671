package report

import (
	"cmp"
	"slices"

	"histop/internal/engine/history"
)

// Ranked is one command with its count, in display order.
type Ranked struct {
	Name  string
	Count int
}

// Rank keeps commands seen more than moreThan times, ordered by count
// descending and then by name.
func Rank(counts history.Counts, moreThan int) []Ranked {
	ranked := make([]Ranked, 0, len(counts))
	for name, count := range counts {
		if count > moreThan {
			ranked = append(ranked, Ranked{Name: name, Count: count})
		}
	}
	slices.SortFunc(ranked, func(a, b Ranked) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	return ranked
}

// Limit returns the first n entries, or all of them when all is set.
func Limit(ranked []Ranked, n int, all bool) []Ranked {
	if all || n >= len(ranked) {
		return ranked
	}
	if n < 0 {
		n = 0
	}
	return ranked[:n]
}
