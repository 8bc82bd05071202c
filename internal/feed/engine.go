package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"
)

// ErrEmptyMix is returned when FetchMixed is called without any mix
// entries. This is a caller bug, not a recoverable condition.
var ErrEmptyMix = errors.New("mix has no entries")

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used to report degraded fetches.
func WithLogger(logger *log.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine fetches weighted pages from multiple sources and merges them
// into one stream.
type Engine struct {
	backend Fetcher
	logger  *log.Logger
}

// NewEngine creates an engine backed by the given content source.
func NewEngine(backend Fetcher, opts ...EngineOption) *Engine {
	e := &Engine{
		backend: backend,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// sourceResult is one source's outcome within a mixed fetch.
type sourceResult struct {
	page Page
	err  error
}

// FetchMixed pulls the next page from every active source concurrently
// and merges the results in weight proportion.
//
// The incoming cursor map positions each source: an empty map starts
// every source from its beginning, while a source missing from a
// non-empty map is exhausted and skipped. The returned map holds
// entries only for sources that still have more data; a source whose
// fetch failed, or that got no allocation this page, keeps its incoming
// position so a later page retries it.
func (e *Engine) FetchMixed(ctx context.Context, mix []MixEntry, limit int, cursors CursorMap) ([]Item, CursorMap, error) {
	if len(mix) == 0 {
		return nil, nil, ErrEmptyMix
	}
	fresh := len(cursors) == 0

	var active []MixEntry
	for _, entry := range mix {
		if entry.Percent <= 0 {
			continue
		}
		if !fresh {
			if _, ok := cursors[entry.Source.Identity()]; !ok {
				continue // exhausted earlier this session
			}
		}
		active = append(active, entry)
	}

	next := CursorMap{}
	if len(active) == 0 {
		return []Item{}, next, nil
	}

	counts := allocate(active, limit)

	results := make([]sourceResult, len(active))
	var wg sync.WaitGroup
	for i, entry := range active {
		if counts[i] <= 0 {
			continue
		}
		wg.Add(1)
		go func(i int, entry MixEntry, want int) {
			defer wg.Done()
			page, err := e.fetchSource(ctx, entry.Source, want, cursors[entry.Source.Identity()])
			results[i] = sourceResult{page: page, err: err}
		}(i, entry, counts[i])
	}
	wg.Wait()

	groups := make([][]Item, len(active))
	weights := make([]int, len(active))
	for i, entry := range active {
		id := entry.Source.Identity()
		weights[i] = entry.Percent

		if counts[i] <= 0 {
			// Never asked this page (limit too small for every active
			// source): position carried forward untouched.
			next[id] = cursors[id]
			continue
		}
		res := results[i]

		if res.err != nil {
			// Zero items this page, position preserved for a retry.
			e.logger.Warn("source fetch failed", "source", entry.Source.Label, "err", res.err)
			next[id] = cursors[id]
			continue
		}

		groups[i] = tagItems(res.page.Items, entry.Source)
		if res.page.Cursor != "" && len(res.page.Items) >= counts[i] {
			next[id] = res.page.Cursor
		}
		// Otherwise the source is exhausted: omitted from the map so
		// no later page asks it again.
	}

	return interleave(groups, weights), next, nil
}

// FetchSingle pulls the next page of one source. It backs
// single-source mode, used whenever the configured mix is incomplete.
func (e *Engine) FetchSingle(ctx context.Context, source Source, limit int, cursor string) ([]Item, string, error) {
	page, err := e.fetchSource(ctx, source, limit, cursor)
	if err != nil {
		return nil, cursor, err
	}
	next := page.Cursor
	if len(page.Items) < limit {
		next = ""
	}
	return tagItems(page.Items, source), next, nil
}

func (e *Engine) fetchSource(ctx context.Context, source Source, limit int, cursor string) (Page, error) {
	if source.Kind == SourceCustom && source.URI != "" {
		return e.backend.FeedByURI(ctx, source.URI, limit, cursor)
	}
	return e.backend.Timeline(ctx, limit, cursor)
}

// tagItems stamps every item with its originating source so downstream
// rendering can label it.
func tagItems(items []Item, source Source) []Item {
	tagged := make([]Item, len(items))
	for i, item := range items {
		item.Origin = source
		tagged[i] = item
	}
	return tagged
}
