// Package focus is the keyboard focus state machine for the masonry
// view: a single focused item index plus a menu guard, advanced by
// directional and action commands and emitting side-effect intents for
// the owning UI to execute.
package focus

import "github.com/gauthierbraillon/skymix/internal/layout"

// IntentKind classifies the side effect a command asks the UI to
// perform on the focused item.
type IntentKind int

const (
	// IntentNone means the command was ignored or fully handled
	// inside the controller.
	IntentNone IntentKind = iota
	// IntentOpen opens the focused item (in the browser).
	IntentOpen
	// IntentReply starts a reply to the focused item.
	IntentReply
	// IntentToggleLike likes or unlikes the focused item.
	IntentToggleLike
	// IntentHide removes the focused item from the view.
	IntentHide
	// IntentFollowAuthor follows or unfollows the focused item's author.
	IntentFollowAuthor
	// IntentRequestBlock asks the UI to confirm blocking the author.
	IntentRequestBlock
	// IntentDismiss asks the UI to close whatever overlay it owns.
	IntentDismiss
)

// Intent is a side effect aimed at the item at Index.
type Intent struct {
	Kind  IntentKind
	Index int
}

// Navigator answers directional queries over the current layout.
// *layout.Index satisfies it.
type Navigator interface {
	Above(i int) int
	Below(i int) int
	LeftClosest(i int, rectOf layout.RectOf) int
	RightClosest(i int, rectOf layout.RectOf) int
}

// Controller holds the focus index and menu state for one view.
//
// The action menu always belongs to the focused item: moving focus
// closes it rather than carrying it along, so the menu can never point
// at an item other than the focused one.
type Controller struct {
	focus    int
	length   int
	menuOpen bool

	modalOpen   bool
	inputActive bool

	nav    Navigator
	rectOf layout.RectOf
}

// NewController creates a controller over a list of length items.
func NewController(length int) *Controller {
	return &Controller{length: length}
}

// SetNavigator installs the spatial index (and optional live geometry)
// for the current layout. Call it again whenever the layout is
// rebuilt.
func (c *Controller) SetNavigator(nav Navigator, rectOf layout.RectOf) {
	c.nav = nav
	c.rectOf = rectOf
}

// SetLength updates the item count after the list grows or shrinks,
// re-clamping focus into range.
func (c *Controller) SetLength(length int) {
	c.length = length
	c.clamp()
}

// Focus returns the current focus index, or -1 for an empty list.
func (c *Controller) Focus() int {
	if c.length == 0 {
		return -1
	}
	return c.focus
}

// MenuIndex returns the index the action menu is open on. The second
// return is false when no menu is open; when true the index always
// equals Focus().
func (c *Controller) MenuIndex() (int, bool) {
	if !c.menuOpen {
		return 0, false
	}
	return c.focus, true
}

// SetModalOpen marks a modal/dialog as open or closed. While open,
// every command except Dismiss is ignored.
func (c *Controller) SetModalOpen(open bool) {
	c.modalOpen = open
}

// SetInputActive marks a text input as holding keyboard focus, which
// guards commands the same way a modal does.
func (c *Controller) SetInputActive(active bool) {
	c.inputActive = active
}

func (c *Controller) guarded() bool {
	return c.modalOpen || c.inputActive
}

// MoveUp moves focus to the item above in its column.
func (c *Controller) MoveUp() { c.move(func(n Navigator, i int) int { return n.Above(i) }) }

// MoveDown moves focus to the item below in its column.
func (c *Controller) MoveDown() { c.move(func(n Navigator, i int) int { return n.Below(i) }) }

// MoveLeft moves focus to the nearest item in the column to the left.
func (c *Controller) MoveLeft() {
	c.move(func(n Navigator, i int) int { return n.LeftClosest(i, c.rectOf) })
}

// MoveRight moves focus to the nearest item in the column to the right.
func (c *Controller) MoveRight() {
	c.move(func(n Navigator, i int) int { return n.RightClosest(i, c.rectOf) })
}

func (c *Controller) move(query func(Navigator, int) int) {
	if c.guarded() || c.nav == nil || c.length == 0 {
		return
	}
	next := query(c.nav, c.focus)
	if next < 0 || next >= c.length {
		next = c.focus
	}
	if next != c.focus {
		c.focus = next
		c.menuOpen = false
	}
}

// Open asks the UI to open the focused item.
func (c *Controller) Open() Intent { return c.action(IntentOpen) }

// Reply asks the UI to start a reply to the focused item.
func (c *Controller) Reply() Intent { return c.action(IntentReply) }

// ToggleLike asks the UI to like or unlike the focused item.
func (c *Controller) ToggleLike() Intent { return c.action(IntentToggleLike) }

// FollowAuthor asks the UI to follow or unfollow the focused author.
func (c *Controller) FollowAuthor() Intent { return c.action(IntentFollowAuthor) }

// RequestBlock asks the UI to confirm blocking the focused author.
func (c *Controller) RequestBlock() Intent { return c.action(IntentRequestBlock) }

func (c *Controller) action(kind IntentKind) Intent {
	if c.guarded() || c.length == 0 {
		return Intent{Kind: IntentNone}
	}
	return Intent{Kind: kind, Index: c.focus}
}

// Hide removes the focused item from the effective list: the list
// shrinks by one and focus re-clamps to the new bounds. The returned
// intent tells the UI which index to drop.
func (c *Controller) Hide() Intent {
	intent := c.action(IntentHide)
	if intent.Kind == IntentNone {
		return intent
	}
	c.length--
	c.menuOpen = false
	c.clamp()
	return intent
}

// ToggleMenu opens the action menu on the focused item, or closes it
// if already open.
func (c *Controller) ToggleMenu() {
	if c.guarded() || c.length == 0 {
		return
	}
	c.menuOpen = !c.menuOpen
}

// Dismiss closes the menu if open and always emits IntentDismiss so
// the UI can close its own overlays. It is the one command that works
// while a modal or text input holds the keyboard.
func (c *Controller) Dismiss() Intent {
	c.menuOpen = false
	return Intent{Kind: IntentDismiss, Index: c.focus}
}

func (c *Controller) clamp() {
	if c.focus >= c.length {
		c.focus = c.length - 1
	}
	if c.focus < 0 {
		c.focus = 0
	}
}
