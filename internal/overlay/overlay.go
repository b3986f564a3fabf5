// Package overlay closes transient popovers when the user interacts outside
// them.
//
// Each popover registers an anchor and reports its on-screen bounds. A
// pointer press outside the bounds of an open anchor closes it. The
// controller only wants pointer events while something is open; it reports
// that through OnListening so the UI can switch mouse reporting on and off.
package overlay

import "sync"

// Anchor identifies a popover.
type Anchor string

const (
	ProfileMenu        Anchor = "profile-menu"
	NotificationsPanel Anchor = "notifications-panel"
	SearchResults      Anchor = "search-results"
)

// Point is a terminal cell position.
type Point struct {
	X, Y int
}

// Rect is a terminal cell rectangle. W and H are exclusive extents.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether the rectangle covers no cells.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Contains reports whether p falls inside r.
func (r Rect) Contains(p Point) bool {
	if r.Empty() {
		return false
	}
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Options attach side effects to an anchor.
type Options struct {
	OnOpen  func()
	OnClose func()
}

// Controller tracks every registered anchor.
type Controller struct {
	mu          sync.Mutex
	handles     map[Anchor]*Handle
	order       []Anchor
	listening   bool
	onListening func(bool)
}

// New returns a controller. onListening fires on every transition of
// Listening and may be nil.
func New(onListening func(bool)) *Controller {
	return &Controller{handles: map[Anchor]*Handle{}, onListening: onListening}
}

// Register returns the handle for anchor, creating it on first use.
// Registering again replaces the options.
func (c *Controller) Register(anchor Anchor, opts Options) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handles[anchor]; ok {
		h.opts = opts
		return h
	}
	h := &Handle{ctrl: c, anchor: anchor, opts: opts}
	c.handles[anchor] = h
	c.order = append(c.order, anchor)
	return h
}

// Handle returns the registered handle for anchor, or nil.
func (c *Controller) Handle(anchor Anchor) *Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handles[anchor]
}

// Listening reports whether any anchor is open.
func (c *Controller) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

// Open lists the open anchors in registration order.
func (c *Controller) Open() []Anchor {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Anchor
	for _, a := range c.order {
		if c.handles[a].open {
			out = append(out, a)
		}
	}
	return out
}

// PointerDown closes every open anchor whose bounds do not contain p and
// returns the anchors it closed. It does nothing while not listening.
func (c *Controller) PointerDown(p Point) []Anchor {
	c.mu.Lock()
	if !c.listening {
		c.mu.Unlock()
		return nil
	}
	var closed []*Handle
	for _, a := range c.order {
		h := c.handles[a]
		if h.open && !h.bounds.Contains(p) {
			h.open = false
			closed = append(closed, h)
		}
	}
	fire := c.updateListeningLocked()
	c.mu.Unlock()

	out := make([]Anchor, 0, len(closed))
	for _, h := range closed {
		out = append(out, h.anchor)
		call(h.opts.OnClose)
	}
	fire()
	return out
}

// CloseAll closes every open anchor and returns them.
func (c *Controller) CloseAll() []Anchor {
	var out []Anchor
	for _, a := range c.Open() {
		if h := c.Handle(a); h != nil && h.Close() {
			out = append(out, a)
		}
	}
	return out
}

func (c *Controller) updateListeningLocked() func() {
	next := false
	for _, h := range c.handles {
		if h.open {
			next = true
			break
		}
	}
	if next == c.listening {
		return func() {}
	}
	c.listening = next
	cb := c.onListening
	return func() {
		if cb != nil {
			cb(next)
		}
	}
}

// Handle controls one anchor.
type Handle struct {
	ctrl   *Controller
	anchor Anchor
	opts   Options
	open   bool
	bounds Rect
}

// Anchor returns the anchor name.
func (h *Handle) Anchor() Anchor { return h.anchor }

// IsOpen reports whether the popover is open.
func (h *Handle) IsOpen() bool {
	h.ctrl.mu.Lock()
	defer h.ctrl.mu.Unlock()
	return h.open
}

// Bounds returns the last reported rectangle.
func (h *Handle) Bounds() Rect {
	h.ctrl.mu.Lock()
	defer h.ctrl.mu.Unlock()
	return h.bounds
}

// SetBounds records where the popover, including its trigger, is drawn.
func (h *Handle) SetBounds(r Rect) {
	h.ctrl.mu.Lock()
	defer h.ctrl.mu.Unlock()
	h.bounds = r
}

// Open opens the popover and reports whether it was closed before.
// OnOpen runs only on that transition.
func (h *Handle) Open() bool {
	return h.set(true)
}

// Close closes the popover and reports whether it was open before.
func (h *Handle) Close() bool {
	return h.set(false)
}

// Toggle flips the popover and returns the new state.
func (h *Handle) Toggle() bool {
	h.ctrl.mu.Lock()
	next := !h.open
	h.ctrl.mu.Unlock()
	h.set(next)
	return next
}

func (h *Handle) set(open bool) bool {
	c := h.ctrl
	c.mu.Lock()
	if h.open == open {
		c.mu.Unlock()
		return false
	}
	h.open = open
	fire := c.updateListeningLocked()
	hook := h.opts.OnClose
	if open {
		hook = h.opts.OnOpen
	}
	c.mu.Unlock()

	fire()
	call(hook)
	return true
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
