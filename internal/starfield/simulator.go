package starfield

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/litescript/ls-sky/internal/canvas"
	"github.com/litescript/ls-sky/internal/sky"
)

const (
	// DefaultMinFPS is the frame rate below which the loop stops for good.
	DefaultMinFPS = 30.0

	// fpsWindow is how many frames each FPS estimate spans.
	fpsWindow = 60

	// maxDPR caps the device pixel ratio.
	maxDPR = 2.0

	starArea = 7000.0
	minStars = 40
)

// Gradient is an optional background the simulator paints itself.
type Gradient struct {
	From, To string
}

// Config is everything the scene depends on besides time and input.
type Config struct {
	Mode          sky.Mode
	StarIntensity float64
	ShowSun       bool
	ShowMoon      bool
	Weather       sky.Condition
	AvoidRects    []Rect
	// Background is nil when a lower layer already paints the gradient.
	Background *Gradient
	// SunProgress places the sun along its arc, 0 at sunrise and 1 at
	// sunset. Nil derives it from the mode.
	SunProgress *float64
	MinFPS      float64
}

// Star is one background star. Positions are logical pixels.
type Star struct {
	X, Y  float64
	R     float64
	Phase float64
}

// Meteor is a streak crossing the sky.
type Meteor struct {
	X, Y   float64
	VX, VY float64
	Life   float64
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithRandom replaces the random source used for stars and meteors.
func WithRandom(rnd func() float64) Option {
	return func(s *Simulator) {
		s.rnd = rnd
	}
}

// WithClock replaces the wall clock used for epochs and moon phase.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		s.clock = now
	}
}

// WithObserver attaches telemetry hooks.
func WithObserver(obs Observer) Option {
	return func(s *Simulator) {
		if obs != nil {
			s.obs = obs
		}
	}
}

// Simulator owns the animation loop and all simulation state.
type Simulator struct {
	host    Host
	surface canvas.Surface
	cfg     Config
	obs     Observer
	rnd     func() float64
	clock   func() time.Time

	running   bool
	paused    bool
	throttled bool
	frameID   FrameID
	removers  []func()

	width, height float64
	stars         [len(starLayers)][]Star
	decor         Decorations
	haveDecor     bool

	meteors    []Meteor
	nextMeteor time.Duration

	scrollY    float64
	pointerX   float64
	pointerY   float64
	hasPointer bool

	windowFrames int
	windowStart  time.Duration
	windowOpen   bool
	lastFPS      float64
}

// New creates a stopped simulator.
func New(host Host, surface canvas.Surface, cfg Config, opts ...Option) *Simulator {
	s := &Simulator{
		host:    host,
		surface: surface,
		cfg:     normalize(cfg),
		obs:     nopObserver{},
		rnd:     rand.Float64,
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalize(cfg Config) Config {
	if cfg.MinFPS <= 0 {
		cfg.MinFPS = DefaultMinFPS
	}
	if cfg.Mode == "" {
		cfg.Mode = sky.ModeNight
	}
	if cfg.Weather == "" {
		cfg.Weather = sky.ConditionUnknown
	}
	return cfg
}

// Start mounts the simulator: sizes the surface, registers listeners and
// schedules the first frame. It does nothing and returns false when the
// host prefers reduced motion or there is no surface. Calling Start on a
// running simulator is a no-op.
func (s *Simulator) Start() bool {
	if s.running {
		return true
	}
	if s.host == nil || s.surface == nil || s.host.PrefersReducedMotion() {
		return false
	}
	s.running = true
	s.throttled = false
	s.windowOpen = false

	s.resize(s.host.Viewport())

	s.removers = append(s.removers,
		s.host.OnResize(s.resize),
		s.host.OnScroll(func(y float64) { s.scrollY = y }),
		s.host.OnPointerMove(func(x, y float64) {
			s.pointerX, s.pointerY = x, y
			s.hasPointer = true
		}),
		s.host.OnVisibilityChange(s.visibilityChanged),
	)

	s.paused = !s.host.Visible()
	if !s.paused {
		s.schedule()
	}
	return true
}

// Stop cancels the loop and removes every listener. It is idempotent.
func (s *Simulator) Stop() {
	if !s.running {
		return
	}
	s.running = false
	if s.frameID != 0 {
		s.host.CancelFrame(s.frameID)
		s.frameID = 0
	}
	for _, remove := range s.removers {
		if remove != nil {
			remove()
		}
	}
	s.removers = nil
	s.meteors = nil
}

// Update replaces the scene configuration. Simulation state is kept.
func (s *Simulator) Update(cfg Config) {
	cfg = normalize(cfg)
	if cfg.Mode != s.cfg.Mode {
		// The pending spawn was drawn from the old mode's window.
		s.nextMeteor = 0
	}
	s.cfg = cfg
}

// Running reports whether the simulator is mounted.
func (s *Simulator) Running() bool { return s.running }

// Throttled reports whether the loop stopped itself for low frame rate.
func (s *Simulator) Throttled() bool { return s.throttled }

// Paused reports whether the loop is suspended while hidden.
func (s *Simulator) Paused() bool { return s.paused }

// Meteors returns the number of live meteors.
func (s *Simulator) Meteors() int { return len(s.meteors) }

// FPS returns the most recent frame rate estimate.
func (s *Simulator) FPS() float64 { return s.lastFPS }

// Stars returns the star count across all layers.
func (s *Simulator) Stars() int {
	n := 0
	for _, l := range s.stars {
		n += len(l)
	}
	return n
}

func (s *Simulator) schedule() {
	if s.frameID != 0 {
		return
	}
	s.frameID = s.host.RequestFrame(s.frame)
}

// frame is the loop body.
func (s *Simulator) frame(now time.Duration) {
	s.frameID = 0
	if !s.running || s.paused || s.throttled {
		return
	}

	s.Draw(now)

	if s.measure(now) {
		return
	}
	s.schedule()
}

// measure updates the FPS window and reports whether the loop throttled.
func (s *Simulator) measure(now time.Duration) bool {
	if !s.windowOpen {
		s.windowOpen = true
		s.windowStart = now
		s.windowFrames = 0
		return false
	}
	s.windowFrames++
	if s.windowFrames < fpsWindow {
		return false
	}

	elapsed := (now - s.windowStart).Seconds()
	s.windowStart = now
	s.windowFrames = 0
	if elapsed <= 0 {
		return false
	}

	fps := fpsWindow / elapsed
	s.lastFPS = fps
	s.obs.FPSMeasured(fps)
	if fps < s.cfg.MinFPS {
		s.throttled = true
		s.obs.Throttled(fps)
		return true
	}
	return false
}

func (s *Simulator) visibilityChanged(visible bool) {
	if !s.running {
		return
	}
	if !visible {
		s.paused = true
		if s.frameID != 0 {
			s.host.CancelFrame(s.frameID)
			s.frameID = 0
		}
		return
	}
	s.paused = false
	if s.throttled {
		return
	}
	// Time spent hidden must not count against the frame rate.
	s.windowOpen = false
	s.schedule()
}

func (s *Simulator) resize(vp Viewport) {
	dpr := vp.DPR
	if dpr <= 0 {
		dpr = 1
	}
	dpr = math.Min(dpr, maxDPR)
	s.surface.Resize(vp.Width, vp.Height, dpr)
	s.width, s.height = s.surface.Size()
	s.generateStars()
}

// StarCount returns how many stars a viewport of w x h gets.
func StarCount(w, h float64) int {
	return max(minStars, int(math.Floor(w*h/starArea)))
}

func (s *Simulator) generateStars() {
	total := StarCount(s.width, s.height)
	assigned := 0
	for i, layer := range starLayers {
		n := int(math.Round(float64(total) * layer.share))
		if i == len(starLayers)-1 {
			n = total - assigned
		}
		assigned += n

		stars := make([]Star, n)
		for j := range stars {
			stars[j] = Star{
				X:     s.rnd() * s.width,
				Y:     s.rnd() * s.height,
				R:     layer.minR + s.rnd()*(layer.maxR-layer.minR),
				Phase: s.rnd() * 2 * math.Pi,
			}
		}
		s.stars[i] = stars
	}
}

// meteorWindow returns the spawn interval range for a mode.
func meteorWindow(m sky.Mode) (lo, hi time.Duration) {
	switch {
	case m == sky.ModeNight:
		return 4 * time.Second, 10 * time.Second
	case m.IsGoldenHour():
		return 8 * time.Second, 16 * time.Second
	default:
		return 18 * time.Second, 30 * time.Second
	}
}

// meteorCap returns how many meteors may be in flight at once.
func meteorCap(m sky.Mode) int {
	switch {
	case m == sky.ModeNight:
		return 3
	case m.IsGoldenHour():
		return 2
	default:
		return 1
	}
}

const (
	meteorDecay   = 0.965
	meteorMinLife = 0.05
	meteorExit    = 40.0
)

func (s *Simulator) stepMeteors(now time.Duration) {
	if s.nextMeteor == 0 {
		s.scheduleMeteor(now)
	}
	if now >= s.nextMeteor {
		if len(s.meteors) < meteorCap(s.cfg.Mode) {
			s.spawnMeteor()
		}
		s.scheduleMeteor(now)
	}

	live := s.meteors[:0]
	for _, m := range s.meteors {
		m.X += m.VX
		m.Y += m.VY
		m.Life *= meteorDecay
		if m.Life < meteorMinLife || m.X > s.width+meteorExit || m.Y > s.height+meteorExit {
			continue
		}
		live = append(live, m)
	}
	s.meteors = live
}

func (s *Simulator) scheduleMeteor(now time.Duration) {
	lo, hi := meteorWindow(s.cfg.Mode)
	s.nextMeteor = now + lo + time.Duration(s.rnd()*float64(hi-lo))
	if s.nextMeteor == 0 {
		s.nextMeteor = 1
	}
}

func (s *Simulator) spawnMeteor() {
	vx := 6 + s.rnd()*3
	s.meteors = append(s.meteors, Meteor{
		X:    s.rnd() * s.width * 0.5,
		Y:    PickSafeY(s.height, s.cfg.AvoidRects, AvoidMargin, s.rnd),
		VX:   vx,
		VY:   vx * 0.35,
		Life: 1,
	})
	s.obs.MeteorSpawned()
}
