// Package tui implements the interactive masonry browse view: a
// bubbletea model that lays the mixed stream into columns, moves a
// focus ring with the keyboard, and executes item actions.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/gauthierbraillon/skymix/internal/config"
	"github.com/gauthierbraillon/skymix/internal/feed"
	"github.com/gauthierbraillon/skymix/internal/focus"
	"github.com/gauthierbraillon/skymix/internal/layout"
)

const (
	// fetchAhead triggers pagination when focus is within this many
	// items of the end of the list.
	fetchAhead = 6
	// visibleRows caps how many cards each column renders at once.
	visibleRows = 4

	actionTimeout = 15 * time.Second
)

// Actions executes the side effects behind item commands.
// *bsky.Client satisfies it.
type Actions interface {
	Like(ctx context.Context, postURI, postCID string) (string, error)
	Unlike(ctx context.Context, likeURI string) error
	Follow(ctx context.Context, did string) (string, error)
	Block(ctx context.Context, did string) (string, error)
}

// pageMsg reports a completed pager fetch.
type pageMsg struct {
	err error
}

// actionMsg reports a completed item action.
type actionMsg struct {
	kind    focus.IntentKind
	index   int
	likeURI string
	err     error
}

// Model is the bubbletea model of the browse view.
type Model struct {
	pager   *feed.Pager
	actions Actions
	openURL func(string) error
	prefs   config.Preferences
	logger  *log.Logger

	ctrl    *focus.Controller
	items   []feed.Item
	hidden  map[string]bool
	columns []layout.Column
	index   *layout.Index
	rects   map[int]layout.Rect

	width        int
	height       int
	loading      bool
	confirmBlock bool
	status       string
}

// NewModel creates the browse model. openURL handles open intents,
// normally browser.Open.
func NewModel(pager *feed.Pager, actions Actions, prefs config.Preferences, openURL func(string) error, logger *log.Logger) Model {
	return Model{
		pager:   pager,
		actions: actions,
		openURL: openURL,
		prefs:   prefs,
		logger:  logger,
		ctrl:    focus.NewController(0),
		hidden:  make(map[string]bool),
		loading: true,
	}
}

// Items exposes the effective item list, read by tests and by the
// caller when persisting state on exit.
func (m Model) Items() []feed.Item { return m.items }

// Focus exposes the current focus index.
func (m Model) Focus() int { return m.ctrl.Focus() }

func (m Model) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.pager.Refresh(context.Background())
		return pageMsg{err: err}
	}
}

func (m Model) moreCmd() tea.Cmd {
	return func() tea.Msg {
		_, err := m.pager.More(context.Background())
		return pageMsg{err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case pageMsg:
		m.loading = false
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.reload()
		return m, nil

	case actionMsg:
		return m.applyAction(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// reload rebuilds the effective list and layout from the pager,
// re-applying the sensitive filter and per-session hides so items
// removed earlier stay removed across pagination.
func (m *Model) reload() {
	items := m.pager.Items()
	if m.prefs.HideSensitive {
		items = feed.WithoutSensitive(items)
	}
	if len(m.hidden) > 0 {
		kept := make([]feed.Item, 0, len(items))
		for _, item := range items {
			if m.hidden[item.URI] {
				continue
			}
			kept = append(kept, item)
		}
		items = kept
	}
	m.items = items
	m.rebuild()
}

// rebuild recomputes columns, geometry, and navigation for the
// current effective list.
func (m *Model) rebuild() {
	est := layout.NewEstimator(float64(m.prefs.CardWidth))
	m.columns = layout.Distribute(m.items, m.prefs.Columns, est)
	m.index = layout.NewIndex(m.columns)

	// Synthetic geometry from the same estimates that drive
	// rendering, so closest-card navigation tracks what is on screen.
	m.rects = make(map[int]layout.Rect, len(m.items))
	for _, col := range m.columns {
		y := 0.0
		for _, entry := range col.Entries {
			h := est.Estimate(entry.Item)
			m.rects[entry.OriginalIndex] = layout.Rect{Top: y, Bottom: y + h}
			y += h
		}
	}

	m.ctrl.SetLength(len(m.items))
	m.ctrl.SetNavigator(m.index, m.rectOf)
}

func (m *Model) rectOf(i int) (layout.Rect, bool) {
	r, ok := m.rects[i]
	return r, ok
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.confirmBlock {
		switch key {
		case "y", "enter":
			m.confirmBlock = false
			m.ctrl.SetModalOpen(false)
			return m, m.blockCmd()
		case "n", "esc", "q":
			m.confirmBlock = false
			m.ctrl.SetModalOpen(false)
			m.ctrl.Dismiss()
			return m, nil
		}
		return m, nil
	}

	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		m.ctrl.MoveUp()
		return m, m.maybeFetchMore()
	case "down", "j":
		m.ctrl.MoveDown()
		return m, m.maybeFetchMore()
	case "left", "h":
		m.ctrl.MoveLeft()
		return m, m.maybeFetchMore()
	case "right", "l":
		m.ctrl.MoveRight()
		return m, m.maybeFetchMore()

	case "enter", "o":
		return m.execute(m.ctrl.Open())
	case "r":
		return m.execute(m.ctrl.Reply())
	case "L":
		return m.execute(m.ctrl.ToggleLike())
	case "x":
		return m.execute(m.ctrl.Hide())
	case "f":
		return m.execute(m.ctrl.FollowAuthor())
	case "B":
		return m.execute(m.ctrl.RequestBlock())
	case "m":
		m.ctrl.ToggleMenu()
		return m, nil
	case "esc":
		m.ctrl.Dismiss()
		m.status = ""
		return m, nil
	}
	return m, nil
}

// maybeFetchMore starts pagination when focus nears the end of the
// stream. The pager ignores the trigger if a fetch is already running.
func (m Model) maybeFetchMore() tea.Cmd {
	if m.pager.Exhausted() {
		return nil
	}
	if m.ctrl.Focus() < len(m.items)-fetchAhead {
		return nil
	}
	return m.moreCmd()
}

// execute turns a controller intent into commands and state changes.
func (m Model) execute(intent focus.Intent) (tea.Model, tea.Cmd) {
	if intent.Kind == focus.IntentNone || intent.Index < 0 || intent.Index >= len(m.items) {
		return m, nil
	}
	item := m.items[intent.Index]

	switch intent.Kind {
	case focus.IntentOpen, focus.IntentReply:
		// Replies are composed on the web: both intents open the
		// post, which lands on its thread view.
		if item.URL == "" {
			m.status = "post has no web link"
			return m, nil
		}
		if err := m.openURL(item.URL); err != nil {
			m.status = fmt.Sprintf("could not open browser: %v", err)
		}
		return m, nil

	case focus.IntentToggleLike:
		return m, m.toggleLikeCmd(intent.Index, item)

	case focus.IntentHide:
		m.hidden[item.URI] = true
		m.items = append(m.items[:intent.Index:intent.Index], m.items[intent.Index+1:]...)
		m.rebuild()
		return m, nil

	case focus.IntentFollowAuthor:
		return m, m.followCmd(intent.Index, item)

	case focus.IntentRequestBlock:
		m.confirmBlock = true
		m.ctrl.SetModalOpen(true)
		return m, nil
	}
	return m, nil
}

func (m Model) toggleLikeCmd(index int, item feed.Item) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if item.Liked {
			err := m.actions.Unlike(ctx, item.LikeURI)
			return actionMsg{kind: focus.IntentToggleLike, index: index, err: err}
		}
		likeURI, err := m.actions.Like(ctx, item.URI, item.CID)
		return actionMsg{kind: focus.IntentToggleLike, index: index, likeURI: likeURI, err: err}
	}
}

func (m Model) followCmd(index int, item feed.Item) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		_, err := m.actions.Follow(ctx, item.Author.DID)
		return actionMsg{kind: focus.IntentFollowAuthor, index: index, err: err}
	}
}

func (m Model) blockCmd() tea.Cmd {
	index := m.ctrl.Focus()
	if index < 0 || index >= len(m.items) {
		return nil
	}
	item := m.items[index]
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		_, err := m.actions.Block(ctx, item.Author.DID)
		return actionMsg{kind: focus.IntentRequestBlock, index: index, err: err}
	}
}

func (m Model) applyAction(msg actionMsg) Model {
	if msg.err != nil {
		m.logger.Warn("action failed", "err", msg.err)
		m.status = msg.err.Error()
		return m
	}

	switch msg.kind {
	case focus.IntentToggleLike:
		if msg.index < len(m.items) {
			item := &m.items[msg.index]
			if item.Liked {
				item.Liked = false
				item.LikeURI = ""
				item.Likes--
			} else {
				item.Liked = true
				item.LikeURI = msg.likeURI
				item.Likes++
			}
		}
		m.status = ""
	case focus.IntentFollowAuthor:
		m.status = "followed"
	case focus.IntentRequestBlock:
		m.status = "blocked"
	}
	return m
}
