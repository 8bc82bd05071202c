// Package layout arranges a merged item stream into height-balanced
// masonry columns and answers directional navigation queries over the
// result using only indices and geometry.
package layout

import "github.com/gauthierbraillon/skymix/internal/feed"

// Default pixel heights for cards whose media cannot be sized. Text
// chrome covers the author line, post text, and action row.
const (
	chromeHeight       = 96
	textOnlyHeight     = 132
	unknownMediaHeight = 330
)

// Estimator predicts the rendered height of an item in a column of
// fixed nominal width. It is pure: the same item and width always
// produce the same estimate.
type Estimator struct {
	// Width is the nominal column width used to scale media by
	// aspect ratio.
	Width float64
}

// NewEstimator creates an estimator for the given column width.
func NewEstimator(width float64) Estimator {
	return Estimator{Width: width}
}

// Estimate returns the predicted card height for an item. Media with a
// known aspect ratio scales with the column width; media of unknown
// size gets a tall generic default and text-only posts a short one.
func (e Estimator) Estimate(item feed.Item) float64 {
	if !item.HasMedia {
		return textOnlyHeight
	}
	if item.AspectRatio > 0 {
		return chromeHeight + e.Width/item.AspectRatio
	}
	return unknownMediaHeight
}
