// Package scroll decides whether the message view follows new content.
// The one rule that matters: new data arriving is not the same as the user
// wanting to see it. A reader who scrolled up into history is never yanked
// back to the bottom by a background poll.
package scroll

// Viewport abstracts the message view's scroll geometry so the controller
// is testable without a real screen.
type Viewport interface {
	// ScrollOffset returns the first visible row, the total content rows
	// and the visible row count.
	ScrollOffset() (row, contentRows, viewRows int)
	// ScrollToEnd jumps to the newest content.
	ScrollToEnd()
}

// Controller tracks whether the user is caught up and whether the view may
// auto-follow new messages.
type Controller struct {
	viewport  Viewport
	threshold int

	nearBottom bool
	autoScroll bool
}

// DefaultThreshold is how many rows from the bottom still count as
// "caught up".
const DefaultThreshold = 4

// NewController creates a controller over the given viewport. A fresh view
// starts at the bottom, following new content.
func NewController(v Viewport, threshold int) *Controller {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Controller{
		viewport:   v,
		threshold:  threshold,
		nearBottom: true,
		autoScroll: true,
	}
}

// NearBottom reports whether the user is within the threshold of the end.
func (c *Controller) NearBottom() bool { return c.nearBottom }

// AutoScrollEnabled reports whether new content may move the viewport.
func (c *Controller) AutoScrollEnabled() bool { return c.autoScroll }

// OnUserScroll recomputes state after the user moved the viewport. Scrolling
// back within the threshold re-arms auto-follow; scrolling away disarms it
// without touching the position.
func (c *Controller) OnUserScroll() {
	if c.atBottom() {
		c.nearBottom = true
		c.autoScroll = true
	} else {
		c.nearBottom = false
		c.autoScroll = false
	}
}

// OnLocalSend is called when the user sends a message. Their own send always
// snaps the view to the bottom, overriding any earlier scroll-away.
func (c *Controller) OnLocalSend() {
	c.nearBottom = true
	c.autoScroll = true
	c.viewport.ScrollToEnd()
}

// OnNewMessages is called after a poll merged newCount previously-unseen
// messages. The viewport only moves when the user was already caught up.
func (c *Controller) OnNewMessages(newCount int) {
	if newCount <= 0 {
		return
	}
	if !c.nearBottom {
		return
	}
	c.autoScroll = true
	c.viewport.ScrollToEnd()
}

func (c *Controller) atBottom() bool {
	row, contentRows, viewRows := c.viewport.ScrollOffset()
	remaining := contentRows - viewRows - row
	return remaining <= c.threshold
}
