package feed

import "math"

// allocate splits a page budget across mix entries in proportion to
// their weights. Every entry with a positive weight receives at least
// one slot when the budget is positive, and the largest-weight entry
// absorbs the rounding remainder so the counts sum to exactly limit.
func allocate(entries []MixEntry, limit int) []int {
	counts := make([]int, len(entries))
	if limit <= 0 || len(entries) == 0 {
		return counts
	}

	total := 0
	for _, entry := range entries {
		total += entry.Percent
	}
	if total <= 0 {
		return counts
	}

	largest := 0
	sum := 0
	for i, entry := range entries {
		n := int(math.Round(float64(entry.Percent) / float64(total) * float64(limit)))
		if n < 1 && entry.Percent > 0 {
			n = 1
		}
		counts[i] = n
		sum += n
		if entry.Percent > entries[largest].Percent {
			largest = i
		}
	}

	counts[largest] += limit - sum
	if counts[largest] < 0 {
		// More active sources than budget: the min-1 floor cannot hold
		// for everyone. Shed the overflow from the tail so the page
		// still sums to exactly limit.
		deficit := -counts[largest]
		counts[largest] = 0
		for i := len(counts) - 1; i >= 0 && deficit > 0; i-- {
			if i == largest {
				continue
			}
			take := counts[i]
			if take > deficit {
				take = deficit
			}
			counts[i] -= take
			deficit -= take
		}
	}
	return counts
}

// interleave merges per-source item groups into one sequence whose
// running composition tracks the sources' weights, instead of emitting
// each group whole. At every position the source furthest behind its
// target share goes next; ties break toward the lowest group index so
// the order is deterministic.
func interleave(groups [][]Item, weights []int) []Item {
	total := 0
	remaining := 0
	for i, w := range weights {
		total += w
		remaining += len(groups[i])
	}
	merged := make([]Item, 0, remaining)
	if total <= 0 {
		for _, group := range groups {
			merged = append(merged, group...)
		}
		return merged
	}

	taken := make([]int, len(groups))
	for len(merged) < remaining {
		best := -1
		var bestDeficit int
		placed := len(merged) + 1
		for i, group := range groups {
			if taken[i] >= len(group) {
				continue
			}
			// deficit of source i after `placed` emissions if it is
			// skipped, scaled by total to stay in integers
			deficit := weights[i]*placed - taken[i]*total
			if best == -1 || deficit > bestDeficit {
				best = i
				bestDeficit = deficit
			}
		}
		merged = append(merged, groups[best][taken[best]])
		taken[best]++
	}
	return merged
}
