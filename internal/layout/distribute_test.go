package layout

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/gauthierbraillon/skymix/internal/feed"
)

// textItem builds a media-less item; every such card has the same
// estimated height, which makes balance assertions easy to reason
// about.
func textItem(n int) feed.Item {
	return feed.Item{URI: fmt.Sprintf("at://post/%d", n), Text: "post"}
}

func mediaItem(n int, ratio float64) feed.Item {
	return feed.Item{
		URI:         fmt.Sprintf("at://media/%d", n),
		HasMedia:    true,
		AspectRatio: ratio,
	}
}

func TestDistribute_PartitionsEveryIndexExactlyOnce(t *testing.T) {
	est := NewEstimator(300)
	for _, n := range []int{1, 2, 3, 5} {
		for _, count := range []int{0, 1, 2, 7, 40} {
			items := make([]feed.Item, count)
			for i := range items {
				if i%3 == 0 {
					items[i] = mediaItem(i, 0.5+float64(i%4))
				} else {
					items[i] = textItem(i)
				}
			}

			columns := Distribute(items, n, est)
			if len(columns) != n {
				t.Fatalf("n=%d count=%d: got %d columns", n, count, len(columns))
			}

			seen := make(map[int]int)
			for _, col := range columns {
				for _, entry := range col.Entries {
					seen[entry.OriginalIndex]++
				}
			}
			if len(seen) != count {
				t.Fatalf("n=%d count=%d: %d indices placed, want %d", n, count, len(seen), count)
			}
			for i := 0; i < count; i++ {
				if seen[i] != 1 {
					t.Fatalf("n=%d count=%d: index %d placed %d times", n, count, i, seen[i])
				}
			}
		}
	}
}

func TestDistribute_SingleColumnKeepsOrder(t *testing.T) {
	items := []feed.Item{textItem(0), mediaItem(1, 1.5), textItem(2)}
	columns := Distribute(items, 1, NewEstimator(300))

	if len(columns) != 1 {
		t.Fatalf("got %d columns, want 1", len(columns))
	}
	for i, entry := range columns[0].Entries {
		if entry.OriginalIndex != i {
			t.Errorf("position %d holds original index %d", i, entry.OriginalIndex)
		}
	}
}

func TestDistribute_IsDeterministic(t *testing.T) {
	items := make([]feed.Item, 25)
	for i := range items {
		items[i] = mediaItem(i, 0.4+float64(i%5)*0.3)
	}
	est := NewEstimator(300)

	first := Distribute(items, 3, est)
	second := Distribute(items, 3, est)
	if !reflect.DeepEqual(first, second) {
		t.Error("same input produced different layouts")
	}
}

func TestDistribute_FillsShortestColumnFirst(t *testing.T) {
	// A very tall first card steers the next cards into the other
	// column until it catches up.
	items := []feed.Item{
		mediaItem(0, 0.25), // 96 + 300/0.25 = 1296
		textItem(1),        // 132 each
		textItem(2),
		textItem(3),
	}
	columns := Distribute(items, 2, NewEstimator(300))

	if got := len(columns[0].Entries); got != 1 {
		t.Errorf("tall column holds %d entries, want just the tall card", got)
	}
	if got := len(columns[1].Entries); got != 3 {
		t.Errorf("short column holds %d entries, want the 3 text cards", got)
	}
}

func TestDistribute_TieGoesToLowestColumn(t *testing.T) {
	columns := Distribute([]feed.Item{textItem(0)}, 3, NewEstimator(300))
	if len(columns[0].Entries) != 1 {
		t.Error("with all columns empty the first item belongs in column 0")
	}
}

func TestEstimator_Branches(t *testing.T) {
	est := NewEstimator(300)

	text := est.Estimate(textItem(0))
	unknown := est.Estimate(mediaItem(1, 0))
	wide := est.Estimate(mediaItem(2, 2.0))  // 96 + 150 = 246
	tall := est.Estimate(mediaItem(3, 0.75)) // 96 + 400 = 496

	if unknown <= text {
		t.Error("media of unknown size should estimate taller than a text-only card")
	}
	if tall <= wide {
		t.Error("a portrait image should estimate taller than a landscape one")
	}
	if wide != 96+300/2.0 {
		t.Errorf("landscape estimate = %v, want chrome + width/ratio", wide)
	}
	if est.Estimate(textItem(4)) != text {
		t.Error("estimates must be deterministic")
	}
}
