// Package scrollback keeps a chat viewport anchored while its content grows.
// The anchor is the distance from the bottom of the content, so prepended
// history and appended messages both preserve what the user is looking at.
package scrollback

import (
	"sync"
	"time"
)

// followThreshold is the distance from the bottom, in pixels, under which
// the viewport is considered "at the bottom" and auto-follows new messages.
const followThreshold = 10

// defaultPulseDuration is how long a jumped-to message stays highlighted.
const defaultPulseDuration = time.Second

// Viewport abstracts the scrollable chat pane the controller drives.
type Viewport interface {
	ScrollTop() int
	SetScrollTop(px int)
	ScrollHeight() int
	ClientHeight() int
	ScrollIntoView(messageID string)
}

// Controller tracks the viewport's distance from the bottom and restores it
// whenever content is rendered or the pane resizes.
type Controller struct {
	mu       sync.Mutex
	viewport Viewport

	// target is the preserved distance from the bottom in pixels. Zero
	// means pinned to the bottom.
	target int

	// ignoreNextScroll marks the next scroll event as controller-initiated
	// so it is not mistaken for user input. One-shot.
	ignoreNextScroll bool

	highlighted   string
	pulseTimer    *time.Timer
	pulseDuration time.Duration
	onHighlight   func(messageID string, active bool)
}

// Option customises controller construction.
type Option func(*Controller)

// WithPulseDuration overrides how long a jumped-to message stays highlighted.
func WithPulseDuration(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pulseDuration = d
		}
	}
}

// WithHighlightFunc registers a callback invoked when a message highlight
// turns on or off.
func WithHighlightFunc(fn func(messageID string, active bool)) Option {
	return func(c *Controller) {
		c.onHighlight = fn
	}
}

// NewController builds a controller pinned to the bottom of the viewport.
func NewController(viewport Viewport, opts ...Option) *Controller {
	c := &Controller{
		viewport:      viewport,
		pulseDuration: defaultPulseDuration,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the preserved distance from the bottom in pixels.
func (c *Controller) Target() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// SaveDistanceFromBottom records the current anchor from the live viewport
// geometry.
func (c *Controller) SaveDistanceFromBottom() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saveLocked()
}

func (c *Controller) saveLocked() {
	hidden := c.viewport.ScrollHeight() - c.viewport.ClientHeight()
	c.target = hidden - c.viewport.ScrollTop()
	if c.target < 0 {
		c.target = 0
	}
}

// OnScrollObserved handles a scroll event. Controller-initiated scrolls are
// swallowed via the one-shot ignore flag; user scrolls update the anchor.
func (c *Controller) OnScrollObserved() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ignoreNextScroll {
		c.ignoreNextScroll = false
		return
	}
	c.saveLocked()
}

// OnMessagesRendered reacts to new content arriving. A viewport that was
// effectively at the bottom snaps back to it; one scrolled into the backlog
// re-saves its anchor so new content pushes history up without moving the
// view.
func (c *Controller) OnMessagesRendered() {
	c.mu.Lock()
	if c.target > followThreshold {
		c.saveLocked()
		c.mu.Unlock()
		return
	}
	c.target = 0
	want, move := c.prepareScrollLocked()
	c.mu.Unlock()
	if move {
		c.viewport.SetScrollTop(want)
	}
}

// OnResize re-anchors the viewport after its geometry changed.
func (c *Controller) OnResize() {
	c.apply()
}

// SnapToBottom pins the viewport to the newest message.
func (c *Controller) SnapToBottom() {
	c.mu.Lock()
	c.target = 0
	want, move := c.prepareScrollLocked()
	c.mu.Unlock()
	if move {
		c.viewport.SetScrollTop(want)
	}
}

// ScrollToTarget moves the viewport to the preserved anchor.
func (c *Controller) ScrollToTarget() {
	c.apply()
}

func (c *Controller) apply() {
	c.mu.Lock()
	want, move := c.prepareScrollLocked()
	c.mu.Unlock()
	if move {
		c.viewport.SetScrollTop(want)
	}
}

// prepareScrollLocked computes the scrollTop for the current anchor and arms
// the ignore flag when a move is needed. The caller performs the move after
// releasing the lock, because a viewport may deliver the resulting scroll
// event synchronously and re-enter OnScrollObserved.
func (c *Controller) prepareScrollLocked() (int, bool) {
	hidden := c.viewport.ScrollHeight() - c.viewport.ClientHeight()
	want := hidden - c.target
	if want < 0 {
		want = 0
	}
	if want == c.viewport.ScrollTop() {
		return 0, false
	}
	c.ignoreNextScroll = true
	return want, true
}

// ScrollToMessage jumps the viewport to a specific message and pulses a
// highlight on it. A second jump restarts the pulse on the new message. The
// optional callback runs once the scroll has been issued. The jump's scroll
// event is not ignored, so the anchor re-saves at the message's position.
func (c *Controller) ScrollToMessage(messageID string, then func()) {
	c.mu.Lock()
	if c.pulseTimer != nil {
		c.pulseTimer.Stop()
	}
	if prev := c.highlighted; prev != "" && prev != messageID && c.onHighlight != nil {
		c.onHighlight(prev, false)
	}
	c.highlighted = messageID
	c.pulseTimer = time.AfterFunc(c.pulseDuration, func() { c.clearHighlight(messageID) })
	onHighlight := c.onHighlight
	c.mu.Unlock()

	c.viewport.ScrollIntoView(messageID)
	if onHighlight != nil {
		onHighlight(messageID, true)
	}
	if then != nil {
		then()
	}
}

// Highlighted returns the message currently pulsing, if any.
func (c *Controller) Highlighted() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.highlighted
}

func (c *Controller) clearHighlight(messageID string) {
	c.mu.Lock()
	if c.highlighted != messageID {
		c.mu.Unlock()
		return
	}
	onHighlight := c.onHighlight
	c.mu.Unlock()

	if onHighlight != nil {
		onHighlight(messageID, false)
	}

	c.mu.Lock()
	if c.highlighted == messageID {
		c.highlighted = ""
	}
	c.mu.Unlock()
}
