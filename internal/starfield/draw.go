package starfield

import (
	"math"
	"time"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/canvas"
	"github.com/litescript/ls-sky/internal/seed"
	"github.com/litescript/ls-sky/internal/sky"
)

type starLayer struct {
	share      float64
	minR, maxR float64
	opacity    float64
	parallax   float64
	maxOffset  float64
}

// Back to front.
var starLayers = [...]starLayer{
	{share: 0.50, minR: 0.2, maxR: 0.6, opacity: 0.5, parallax: 0.02, maxOffset: 6},
	{share: 0.35, minR: 0.4, maxR: 0.9, opacity: 0.7, parallax: 0.05, maxOffset: 12},
	{share: 0.15, minR: 0.7, maxR: 1.4, opacity: 0.9, parallax: 0.10, maxOffset: 20},
}

const (
	moonRadius   = 26.0
	moonHalo     = moonRadius * 2.5
	sunRadius    = 22.0
	lanternRange = 120.0
)

var (
	starColor    = canvas.Hex("#ffffff")
	moonColor    = canvas.Hex("#ffffe6")
	lanternColor = canvas.Hex("#fff3c4")
	meteorColor  = canvas.Hex("#ffffff")
)

var sunColors = map[sky.Mode]string{
	sky.ModeDawn:      "#ffb86b",
	sky.ModeMorning:   "#fff2b0",
	sky.ModeNoon:      "#fffbe6",
	sky.ModeAfternoon: "#ffe9a0",
	sky.ModeDusk:      "#ff8c5a",
}

// modeSunProgress places the sun when no real sun path is known.
var modeSunProgress = map[sky.Mode]float64{
	sky.ModeDawn:      0.05,
	sky.ModeMorning:   0.3,
	sky.ModeNoon:      0.5,
	sky.ModeAfternoon: 0.7,
	sky.ModeDusk:      0.95,
}

// Twinkle returns a star's alpha multiplier at elapsed time now.
func Twinkle(now time.Duration, phase float64) float64 {
	ms := float64(now) / float64(time.Millisecond)
	return 0.4 + 0.6*(0.5+0.5*math.Sin(ms/900+phase))
}

// ParallaxOffset returns a layer's vertical shift for a scroll position.
func ParallaxOffset(layer int, scrollY float64) float64 {
	l := starLayers[layer]
	off := scrollY * l.parallax
	return math.Max(-l.maxOffset, math.Min(l.maxOffset, off))
}

// Draw paints one frame at elapsed time now, advancing meteors. It does
// not schedule anything, so it may be called directly for a still frame.
func (s *Simulator) Draw(now time.Duration) {
	if s.surface == nil {
		return
	}
	if s.width == 0 && s.height == 0 && s.host != nil {
		s.resize(s.host.Viewport())
	}

	sf := s.surface
	sf.Clear()
	if bg := s.cfg.Background; bg != nil {
		sf.FillVertical(canvas.Hex(bg.From), canvas.Hex(bg.To), 1)
	}

	s.drawStars(now)
	if s.cfg.Mode != sky.ModeNoon {
		s.drawDecorations(now)
	}
	if s.cfg.ShowMoon && (s.cfg.Mode == sky.ModeNight || s.cfg.Mode == sky.ModeDusk) {
		s.drawMoon()
	}
	if s.cfg.ShowSun && s.cfg.Mode != sky.ModeNight {
		s.drawSun()
	}
	if s.hasPointer {
		sf.Glow(s.pointerX, s.pointerY, lanternRange, lanternColor, 0.12, true)
	}

	s.stepMeteors(now)
	for _, m := range s.meteors {
		sf.Line(m.X, m.Y, m.X-m.VX*3.3, m.Y-m.VY*3.3, meteorColor, m.Life)
	}

	s.obs.FrameDrawn()
}

func (s *Simulator) drawStars(now time.Duration) {
	intensity := s.cfg.StarIntensity
	if intensity <= 0 || s.height <= 0 {
		return
	}
	for i, layer := range starLayers {
		off := ParallaxOffset(i, s.scrollY)
		for _, st := range s.stars[i] {
			a := layer.opacity * Twinkle(now, st.Phase) * intensity
			if a < 0.01 {
				continue
			}
			y := math.Mod(st.Y-off+s.height, s.height)
			s.surface.Circle(st.X, y, st.R, starColor, a)
		}
	}
}

func (s *Simulator) drawDecorations(now time.Duration) {
	epoch := seed.Epoch(s.clock())
	if !s.haveDecor || s.decor.Epoch != epoch || s.decor.Mode != s.cfg.Mode {
		s.decor = DecorationsFor(epoch, s.cfg.Mode)
		s.haveDecor = true
	}

	ms := float64(now) / float64(time.Millisecond)
	strength := 0.3 + 0.7*clamp01(s.cfg.StarIntensity)

	for _, g := range s.decor.Galaxies {
		pulse := 0.75 + 0.25*math.Sin(ms/3000+g.Phase)
		s.surface.Ellipse(g.X*s.width, g.Y*s.height, g.RX, g.RY, g.Rot,
			canvas.Hex(g.Color), 0.22*pulse*strength)
	}
	for _, c := range s.decor.Clusters {
		pulse := 0.7 + 0.3*math.Sin(ms/2200+c.Phase)
		s.surface.Glow(c.X*s.width, c.Y*s.height, c.R, canvas.Hex(c.Color), 0.25*pulse*strength, false)
	}
	for _, p := range s.decor.Planets {
		x, y := p.X*s.width, p.Y*s.height
		col := canvas.Hex(p.Color)
		if p.Ring {
			s.surface.Ellipse(x, y, p.R*3, p.R*0.9, p.Tilt, col, 0.35*strength)
		}
		s.surface.Circle(x, y, p.R, col, 0.9*strength)
	}
}

func (s *Simulator) drawMoon() {
	mx, my := s.width*0.85, s.height*0.15
	phase := astro.MoonPhase(s.clock())

	// The halo brightens with the lit fraction; a thin crescent has none.
	if lit := astro.MoonIllumination(phase); lit >= 0.05 {
		s.surface.Glow(mx, my, moonHalo, canvas.Scale(moonColor, 0.8), 0.2*lit, true)
	}
	s.surface.Circle(mx, my, moonRadius, moonColor, 0.9)

	off := astro.MoonShadowOffset(phase)
	if math.Abs(off) < 2 {
		s.surface.Erase(mx+off*moonRadius, my-2, moonRadius)
	}
}

// SunPosition returns where the sun is drawn for a daylight progress.
func SunPosition(w, h, progress float64) (x, y float64) {
	p := clamp01(progress)
	x = w * (0.08 + 0.84*p)
	y = h * (0.62 - 0.5*math.Sin(math.Pi*p))
	return x, y
}

func (s *Simulator) drawSun() {
	p, ok := modeSunProgress[s.cfg.Mode]
	if !ok {
		p = 0.5
	}
	if s.cfg.SunProgress != nil {
		p = *s.cfg.SunProgress
	}
	x, y := SunPosition(s.width, s.height, p)

	hex, ok := sunColors[s.cfg.Mode]
	if !ok {
		hex = sunColors[sky.ModeNoon]
	}
	col := canvas.Hex(hex)

	if s.cfg.Weather.Obscures() {
		s.surface.Circle(x, y, sunRadius, col, 0.4)
		return
	}
	s.surface.Glow(x, y, sunRadius*4, col, 0.35, false)
	s.surface.Circle(x, y, sunRadius, col, 0.95)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
