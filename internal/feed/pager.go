package feed

import (
	"context"
	"sync"
)

// Pager owns the merged item list and cursor state across pages. It
// serializes fetching: at most one Refresh or More runs at a time, a
// second trigger while one is in flight is a no-op, and a fetch whose
// session was reset underneath it is discarded rather than applied.
type Pager struct {
	engine *Engine
	mix    []MixEntry
	limit  int

	mu        sync.Mutex
	items     []Item
	cursors   CursorMap
	inflight  bool
	exhausted bool
	seq       int
}

// NewPager creates a pager over the given mix. A saved outer cursor
// token may be supplied to resume a previous session; an empty or
// unreadable token starts from the top.
func NewPager(engine *Engine, mix []MixEntry, limit int, cursorToken string) *Pager {
	return &Pager{
		engine:  engine,
		mix:     mix,
		limit:   limit,
		cursors: DecodeCursors(cursorToken),
	}
}

// Items returns a snapshot of the merged list accumulated so far.
func (p *Pager) Items() []Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Item, len(p.items))
	copy(out, p.items)
	return out
}

// CursorToken returns the opaque resume token for the current
// position, or "" when every source is exhausted.
func (p *Pager) CursorToken() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return EncodeCursors(p.cursors)
}

// Exhausted reports whether every source has run dry.
func (p *Pager) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// Refresh drops accumulated items and cursor state and loads the first
// page. Any fetch already in flight when Refresh is called is stale
// and its result will be discarded.
func (p *Pager) Refresh(ctx context.Context) ([]Item, error) {
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.items = nil
	p.cursors = CursorMap{}
	p.exhausted = false
	p.inflight = true
	p.mu.Unlock()

	items, next, err := p.fetchPage(ctx, CursorMap{})
	return p.apply(seq, items, next, err, false)
}

// More fetches and appends the next page. It returns (nil, nil) when a
// fetch is already in flight or every source is exhausted.
func (p *Pager) More(ctx context.Context) ([]Item, error) {
	p.mu.Lock()
	if p.inflight || p.exhausted {
		p.mu.Unlock()
		return nil, nil
	}
	p.inflight = true
	seq := p.seq
	cursors := p.cursors.Clone()
	p.mu.Unlock()

	items, next, err := p.fetchPage(ctx, cursors)
	return p.apply(seq, items, next, err, true)
}

// fetchPage routes to mixed or single-source mode. An incomplete mix
// always runs single-source against its first entry.
func (p *Pager) fetchPage(ctx context.Context, cursors CursorMap) ([]Item, CursorMap, error) {
	if MixComplete(p.mix) {
		return p.engine.FetchMixed(ctx, p.mix, p.limit, cursors)
	}
	if len(p.mix) == 0 {
		return nil, nil, ErrEmptyMix
	}
	source := p.mix[0].Source
	id := source.Identity()
	if len(cursors) > 0 {
		if _, ok := cursors[id]; !ok {
			return []Item{}, CursorMap{}, nil
		}
	}
	items, next, err := p.engine.FetchSingle(ctx, source, p.limit, cursors[id])
	if err != nil {
		return nil, nil, err
	}
	out := CursorMap{}
	if next != "" {
		out[id] = next
	}
	return items, out, nil
}

// apply commits a fetch result unless the session moved on while the
// fetch was running.
func (p *Pager) apply(seq int, items []Item, next CursorMap, err error, appendTo bool) ([]Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.seq {
		return nil, nil // stale result, a Refresh superseded this fetch
	}
	p.inflight = false
	if err != nil {
		return nil, err
	}
	if appendTo {
		p.items = append(p.items, items...)
	} else {
		p.items = items
	}
	p.cursors = next
	p.exhausted = len(next) == 0
	return items, nil
}
