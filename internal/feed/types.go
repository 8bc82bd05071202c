// Package feed merges independently paginated content sources into a
// single weighted stream.
//
// This package enables skymix to:
// - Mix the following timeline with custom feed generators by percentage
// - Resume pagination across all sources through one opaque cursor
// - Keep serving remaining sources when one source fails or runs dry
package feed

import (
	"context"
	"time"
)

// SourceKind identifies the capability used to fetch a source.
type SourceKind string

const (
	// SourceTimeline is the authenticated user's following timeline.
	SourceTimeline SourceKind = "timeline"
	// SourceCustom is a feed generator addressed by URI.
	SourceCustom SourceKind = "custom"
)

// Source is one addressable content stream.
type Source struct {
	Kind  SourceKind `json:"kind"`
	URI   string     `json:"uri,omitempty"`
	Label string     `json:"label"`
}

// Identity returns the key under which a source is tracked in cursor
// maps and mix configuration. The URI wins when present so two saved
// feeds with the same display label stay distinct.
func (s Source) Identity() string {
	if s.URI != "" {
		return s.URI
	}
	return s.Label
}

// Equal reports whether two sources address the same stream.
func (s Source) Equal(other Source) bool {
	return s.Identity() == other.Identity()
}

// MixEntry assigns a percentage share of the merged stream to a source.
type MixEntry struct {
	Source  Source `json:"source"`
	Percent int    `json:"percent"`
}

// completeThreshold is the minimum percent sum for a mix to be usable
// as-is. 99 rather than 100 absorbs integer rounding in stored weights.
const completeThreshold = 99

// MixComplete reports whether the entries' percents add up to a full
// mix. An incomplete mix routes to single-source mode instead.
func MixComplete(mix []MixEntry) bool {
	total := 0
	for _, entry := range mix {
		total += entry.Percent
	}
	return total >= completeThreshold
}

// Author identifies the account that produced an item.
type Author struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}

// Item is one post in the merged stream. Items are immutable once
// fetched; the engine builds a fresh slice on every page.
type Item struct {
	URI       string    `json:"uri"`
	CID       string    `json:"cid,omitempty"`
	Author    Author    `json:"author"`
	Text      string    `json:"text"`
	URL       string    `json:"url,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// AspectRatio is width/height of the leading media embed, 0 when
	// the item has no media or the ratio is unknown.
	AspectRatio float64 `json:"aspect_ratio,omitempty"`
	HasMedia    bool    `json:"has_media,omitempty"`
	Sensitive   bool    `json:"sensitive,omitempty"`

	Likes   int64 `json:"likes,omitempty"`
	Reposts int64 `json:"reposts,omitempty"`
	Replies int64 `json:"replies,omitempty"`

	// Liked and LikeURI carry the viewer's like state; LikeURI is the
	// record to delete on unlike.
	Liked   bool   `json:"liked,omitempty"`
	LikeURI string `json:"like_uri,omitempty"`

	// Origin is the source that contributed this item to the mix.
	Origin Source `json:"origin"`
}

// Page is one fetched slice of a single source. An empty Cursor means
// the source has no further pages.
type Page struct {
	Items  []Item
	Cursor string
}

// CursorMap tracks the resume position of every still-active source,
// keyed by source identity. A source absent from a non-empty map is
// exhausted and must not be fetched again this session.
type CursorMap map[string]string

// Clone returns an independent copy of the map.
func (m CursorMap) Clone() CursorMap {
	if m == nil {
		return nil
	}
	out := make(CursorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Fetcher is the content-source backend the engine pulls pages from.
type Fetcher interface {
	// Timeline returns the next page of the following timeline.
	Timeline(ctx context.Context, limit int, cursor string) (Page, error)
	// FeedByURI returns the next page of a feed generator.
	FeedByURI(ctx context.Context, uri string, limit int, cursor string) (Page, error)
}
