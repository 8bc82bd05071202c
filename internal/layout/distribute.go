package layout

import "github.com/gauthierbraillon/skymix/internal/feed"

// Placement is one item slotted into a column, remembering its
// position in the merged list so navigation and focus can refer back
// to it.
type Placement struct {
	Item          feed.Item
	OriginalIndex int
}

// Column is one vertical partition of the masonry layout, in display
// order, with its running estimated height.
type Column struct {
	Entries []Placement
	Height  float64
}

// Distribute assigns items to n columns in input order, always
// appending to the currently shortest column (ties go to the lowest
// column index). The result partitions the input indices exactly once
// across all columns and is deterministic for a given input.
func Distribute(items []feed.Item, n int, est Estimator) []Column {
	if n < 1 {
		n = 1
	}
	columns := make([]Column, n)
	for i, item := range items {
		shortest := 0
		for c := 1; c < n; c++ {
			if columns[c].Height < columns[shortest].Height {
				shortest = c
			}
		}
		columns[shortest].Entries = append(columns[shortest].Entries, Placement{
			Item:          item,
			OriginalIndex: i,
		})
		columns[shortest].Height += est.Estimate(item)
	}
	return columns
}
