// Package compositor is the single integration point of the sky layer. It
// merges the manual override over resolved state, picks the theme, and
// stacks gradient, starfield, weather overlay and darkness into one grid.
package compositor

import (
	"errors"
	"sync"
	"time"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/canvas"
	"github.com/litescript/ls-sky/internal/overlay"
	"github.com/litescript/ls-sky/internal/resolver"
	"github.com/litescript/ls-sky/internal/sky"
	"github.com/litescript/ls-sky/internal/starfield"
)

// ErrAlreadyMounted is returned when a sky layer is already active.
var ErrAlreadyMounted = errors.New("sky layer already mounted")

// Registry records whether a sky layer is active. The composition root
// owns one and hands it to every place that may mount the sky.
type Registry struct {
	mu     sync.Mutex
	active bool
}

// Acquire claims the registry. ok is false when it is already held.
// release is idempotent.
func (r *Registry) Acquire() (release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return func() {}, false
	}
	r.active = true

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			r.active = false
			r.mu.Unlock()
		})
	}, true
}

// Active reports whether a layer holds the registry.
func (r *Registry) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Params is everything a frame depends on besides time and input.
type Params struct {
	Resolved    resolver.Resolved
	Theme       sky.Theme
	SunProgress *float64
	// SunElevation is the real sun's elevation in degrees when a location
	// is known.
	SunElevation *float64
	AvoidRects   []starfield.Rect
	MinFPS       float64
}

// ParamsFor builds Params for a resolved state. When the mode is computed
// rather than pinned and sun is non-nil, the sun follows its real arc.
func ParamsFor(res resolver.Resolved, sun *astro.SunPath, now time.Time) Params {
	p := Params{
		Resolved: res,
		Theme:    sky.ThemeFor(res.Mode),
	}
	if sun == nil {
		return p
	}
	elevation := sun.Elevation(now)
	p.SunElevation = &elevation
	if !res.ManualMode {
		if progress, ok := sun.Progress(now); ok {
			p.SunProgress = &progress
		}
	}
	return p
}

// StarConfig converts params to the simulator configuration. The
// compositor paints the gradient itself, so Background stays nil.
func (p Params) StarConfig() starfield.Config {
	return starfield.Config{
		Mode:          p.Resolved.Mode,
		StarIntensity: p.Theme.StarIntensity,
		ShowSun:       p.Theme.ShowSun,
		ShowMoon:      p.Theme.ShowMoon,
		Weather:       p.Resolved.Weather,
		AvoidRects:    p.AvoidRects,
		SunProgress:   p.SunProgress,
		MinFPS:        p.MinFPS,
	}
}

// OverlayInput converts params to the overlay input.
func (p Params) OverlayInput() overlay.Input {
	return overlay.InputFor(p.Resolved.Mode, p.Resolved.Weather)
}

// Layer is a mounted sky.
type Layer struct {
	host    starfield.Host
	sim     *starfield.Simulator
	release func()

	params Params
	scene  overlay.Scene

	background *canvas.Grid
	stars      *canvas.Grid
	weather    *canvas.Grid
	shade      *canvas.Grid
	vp         starfield.Viewport

	animated bool
	mounted  bool
}

// Mount claims reg and starts the starfield on host. Simulator options
// (observer, random source, clock) are passed through.
func Mount(reg *Registry, host starfield.Host, params Params, opts ...starfield.Option) (*Layer, error) {
	release, ok := reg.Acquire()
	if !ok {
		return nil, ErrAlreadyMounted
	}

	l := newLayer(host, params, opts...)
	l.release = release
	l.animated = l.sim.Start()
	l.mounted = true
	return l, nil
}

func newLayer(host starfield.Host, params Params, opts ...starfield.Option) *Layer {
	l := &Layer{
		host:       host,
		params:     params,
		scene:      overlay.Compose(params.OverlayInput()),
		background: canvas.NewGrid(0, 0),
		stars:      canvas.NewGrid(0, 0),
		weather:    canvas.NewGrid(0, 0),
		shade:      canvas.NewGrid(0, 0),
	}
	l.sim = starfield.New(host, l.stars, params.StarConfig(), opts...)
	return l
}

// Unmount stops the starfield and releases the registry. It is idempotent.
func (l *Layer) Unmount() {
	if !l.mounted {
		return
	}
	l.mounted = false
	l.sim.Stop()
	if l.release != nil {
		l.release()
	}
}

// Animated reports whether the starfield loop was started.
func (l *Layer) Animated() bool { return l.animated }

// Simulator exposes the starfield for status reporting.
func (l *Layer) Simulator() *starfield.Simulator { return l.sim }

// Params returns the current parameters.
func (l *Layer) Params() Params { return l.params }

// Scene returns the current overlay scene.
func (l *Layer) Scene() overlay.Scene { return l.scene }

// Update applies new parameters. The overlay is recomposed only when its
// input changes.
func (l *Layer) Update(p Params) {
	if p.OverlayInput() != l.params.OverlayInput() {
		l.scene = overlay.Compose(p.OverlayInput())
	}
	if p.Theme != l.params.Theme {
		// Force the gradient to repaint.
		l.vp = starfield.Viewport{}
	}
	l.params = p
	l.sim.Update(p.StarConfig())
}

// Render stacks every layer at elapsed time now. The starfield grid holds
// whatever the simulator last drew.
func (l *Layer) Render(now time.Duration) *canvas.Grid {
	l.sync()

	l.weather.Clear()
	overlay.Paint(l.weather, l.scene, now)

	return canvas.Flatten(l.background, l.stars, l.weather, l.shade)
}

// sync resizes the static layers to the host viewport and repaints them.
func (l *Layer) sync() {
	vp := l.host.Viewport()
	if vp == l.vp {
		return
	}
	l.vp = vp

	th := l.params.Theme
	for _, g := range []*canvas.Grid{l.background, l.weather, l.shade} {
		g.Resize(vp.Width, vp.Height, 1)
		g.Clear()
	}
	l.background.FillVertical(canvas.Hex(th.GradientFrom), canvas.Hex(th.GradientTo), 1)
	w, h := l.shade.Size()
	l.shade.FillRect(0, 0, w, h, canvas.Black, th.OverlayDarkness)
}

// Still renders a single frame without mounting: no registry, no loop,
// no listeners. The starfield is drawn once at now.
func Still(host starfield.Host, params Params, now time.Duration, opts ...starfield.Option) *canvas.Grid {
	l := newLayer(host, params, opts...)
	l.sim.Draw(now)
	return l.Render(now)
}
