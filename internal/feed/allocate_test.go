package feed

import "testing"

func entriesFor(percents ...int) []MixEntry {
	entries := make([]MixEntry, len(percents))
	for i, p := range percents {
		entries[i] = MixEntry{Source: customSource(string(rune('a' + i))), Percent: p}
	}
	return entries
}

func TestAllocate_SumsToLimitExactly(t *testing.T) {
	cases := []struct {
		name     string
		percents []int
		limit    int
	}{
		{"even pair", []int{50, 50}, 30},
		{"uneven pair", []int{70, 30}, 30},
		{"thirds do not divide", []int{33, 33, 34}, 10},
		{"many small weights", []int{10, 10, 10, 10, 10, 10, 10, 10, 10, 10}, 7},
		{"single source", []int{100}, 25},
		{"limit one", []int{60, 40}, 1},
		{"skewed", []int{97, 1, 1, 1}, 20},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			counts := allocate(entriesFor(tc.percents...), tc.limit)
			sum := 0
			for _, n := range counts {
				sum += n
			}
			if sum != tc.limit {
				t.Errorf("allocations %v sum to %d, want %d", counts, sum, tc.limit)
			}
		})
	}
}

func TestAllocate_PositiveWeightGetsAtLeastOne(t *testing.T) {
	counts := allocate(entriesFor(98, 1, 1), 10)
	for i, n := range counts {
		if n < 1 {
			t.Errorf("entry %d has positive weight but allocation %d", i, n)
		}
	}
}

func TestAllocate_ZeroLimit(t *testing.T) {
	counts := allocate(entriesFor(50, 50), 0)
	for i, n := range counts {
		if n != 0 {
			t.Errorf("entry %d allocated %d items from a zero budget", i, n)
		}
	}
}
