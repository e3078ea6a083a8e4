// Package starfield animates the layered sky: parallax stars, celestial
// decorations, sun, moon, a pointer lantern and meteors. One Simulator owns
// one surface and is driven by its host's frame scheduler; it is not safe
// for concurrent use.
package starfield

import "time"

// Viewport is the host's drawable area in logical pixels.
type Viewport struct {
	Width  float64
	Height float64
	DPR    float64
}

// Rect is a viewport rectangle.
type Rect struct {
	X, Y, W, H float64
}

// FrameID identifies a pending frame request. Zero is never issued.
type FrameID int

// Host supplies frame scheduling and input events. Every On* method returns
// a func that removes the listener.
type Host interface {
	Viewport() Viewport
	PrefersReducedMotion() bool
	Visible() bool

	// RequestFrame schedules fn for the next frame. now is the host's
	// monotonic frame timestamp.
	RequestFrame(fn func(now time.Duration)) FrameID
	CancelFrame(id FrameID)

	OnResize(fn func(Viewport)) func()
	OnScroll(fn func(y float64)) func()
	OnPointerMove(fn func(x, y float64)) func()
	OnVisibilityChange(fn func(visible bool)) func()
}

// Observer receives simulator telemetry. All methods may be no-ops.
type Observer interface {
	FrameDrawn()
	MeteorSpawned()
	FPSMeasured(fps float64)
	Throttled(fps float64)
}

type nopObserver struct{}

func (nopObserver) FrameDrawn()         {}
func (nopObserver) MeteorSpawned()      {}
func (nopObserver) FPSMeasured(float64) {}
func (nopObserver) Throttled(float64)   {}
