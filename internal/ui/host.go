package ui

import (
	"time"

	"github.com/litescript/ls-sky/internal/canvas"
	"github.com/litescript/ls-sky/internal/starfield"
)

// frameMsg delivers a requested animation frame.
type frameMsg struct {
	id starfield.FrameID
	at time.Time
}

// TermHost adapts the Bubble Tea event loop to starfield.Host. Frame
// requests become tea.Tick commands; terminal events are fanned out to the
// registered listeners. It is only touched from the Update goroutine.
type TermHost struct {
	vp      starfield.Viewport
	reduced bool
	visible bool
	start   time.Time

	nextID    starfield.FrameID
	pendingID starfield.FrameID
	pending   func(time.Duration)
	requested bool

	nextListener int
	resize       map[int]func(starfield.Viewport)
	scroll       map[int]func(float64)
	pointer      map[int]func(float64, float64)
	visibility   map[int]func(bool)

	scrollY float64
}

// NewTermHost creates a host. reduced mirrors the reduced-motion setting.
func NewTermHost(reduced bool, start time.Time) *TermHost {
	return &TermHost{
		reduced:    reduced,
		visible:    true,
		start:      start,
		vp:         starfield.Viewport{DPR: 1},
		resize:     make(map[int]func(starfield.Viewport)),
		scroll:     make(map[int]func(float64)),
		pointer:    make(map[int]func(float64, float64)),
		visibility: make(map[int]func(bool)),
	}
}

func (h *TermHost) Viewport() starfield.Viewport { return h.vp }
func (h *TermHost) PrefersReducedMotion() bool   { return h.reduced }
func (h *TermHost) Visible() bool                { return h.visible }

// RequestFrame records fn as the next frame callback.
func (h *TermHost) RequestFrame(fn func(time.Duration)) starfield.FrameID {
	h.nextID++
	h.pendingID = h.nextID
	h.pending = fn
	h.requested = true
	return h.nextID
}

// CancelFrame drops a pending frame. A tick already in flight for it is
// ignored on arrival.
func (h *TermHost) CancelFrame(id starfield.FrameID) {
	if id == h.pendingID {
		h.pendingID = 0
		h.pending = nil
		h.requested = false
	}
}

func (h *TermHost) OnResize(fn func(starfield.Viewport)) func() {
	id := h.listenerID()
	h.resize[id] = fn
	return func() { delete(h.resize, id) }
}

func (h *TermHost) OnScroll(fn func(float64)) func() {
	id := h.listenerID()
	h.scroll[id] = fn
	return func() { delete(h.scroll, id) }
}

func (h *TermHost) OnPointerMove(fn func(x, y float64)) func() {
	id := h.listenerID()
	h.pointer[id] = fn
	return func() { delete(h.pointer, id) }
}

func (h *TermHost) OnVisibilityChange(fn func(bool)) func() {
	id := h.listenerID()
	h.visibility[id] = fn
	return func() { delete(h.visibility, id) }
}

func (h *TermHost) listenerID() int {
	h.nextListener++
	return h.nextListener
}

// Listeners returns how many listeners are registered.
func (h *TermHost) Listeners() int {
	return len(h.resize) + len(h.scroll) + len(h.pointer) + len(h.visibility)
}

// takeRequest reports and clears a frame request that still needs a tick.
func (h *TermHost) takeRequest() (starfield.FrameID, bool) {
	if !h.requested {
		return 0, false
	}
	h.requested = false
	return h.pendingID, true
}

// fire runs the pending frame if id is still current.
func (h *TermHost) fire(id starfield.FrameID, at time.Time) bool {
	if id == 0 || id != h.pendingID || h.pending == nil {
		return false
	}
	fn := h.pending
	h.pending = nil
	h.pendingID = 0
	fn(at.Sub(h.start))
	return true
}

// Resize sizes the viewport to a cell area and notifies resize listeners.
func (h *TermHost) Resize(cols, rows int) {
	vp := starfield.Viewport{
		Width:  float64(cols) * canvas.CellWidth,
		Height: float64(rows) * canvas.CellHeight,
		DPR:    1,
	}
	if vp == h.vp {
		return
	}
	h.vp = vp
	for _, fn := range h.resize {
		fn(vp)
	}
}

// scrollBy moves the virtual page by dy logical pixels, never above 0.
func (h *TermHost) scrollBy(dy float64) {
	h.scrollY = max(0, h.scrollY+dy)
	for _, fn := range h.scroll {
		fn(h.scrollY)
	}
}

// pointerAt reports the pointer over a cell, at the cell center.
func (h *TermHost) pointerAt(col, row int) {
	x := (float64(col) + 0.5) * canvas.CellWidth
	y := (float64(row) + 0.5) * canvas.CellHeight
	for _, fn := range h.pointer {
		fn(x, y)
	}
}

func (h *TermHost) setVisible(v bool) {
	if v == h.visible {
		return
	}
	h.visible = v
	for _, fn := range h.visibility {
		fn(v)
	}
}
