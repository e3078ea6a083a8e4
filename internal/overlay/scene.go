// Package overlay builds the declarative weather and ambient layers drawn
// above the starfield. A Scene is a pure function of its Input; animation
// is evaluated from elapsed time alone, so the same scene and time always
// paint the same frame.
package overlay

import (
	"math"
	"time"

	"github.com/litescript/ls-sky/internal/seed"
	"github.com/litescript/ls-sky/internal/sky"
)

// Kind identifies how a particle is drawn.
type Kind int

const (
	KindCloud Kind = iota
	KindAirplane
	KindBird
	KindBuilding
	KindWhale
	KindRain
	KindSplash
	KindFlake
	KindHail
	KindSwish
	KindMote
)

var kindNames = [...]string{
	KindCloud:    "cloud",
	KindAirplane: "airplane",
	KindBird:     "bird",
	KindBuilding: "building",
	KindWhale:    "whale",
	KindRain:     "rain",
	KindSplash:   "splash",
	KindFlake:    "flake",
	KindHail:     "hail",
	KindSwish:    "swish",
	KindMote:     "mote",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Layer names, in paint order.
const (
	LayerClouds   = "clouds"
	LayerAirplane = "airplane"
	LayerBirds    = "birds"
	LayerSkyline  = "skyline"
	LayerWhale    = "whale"
	LayerRain     = "rain"
	LayerSplashes = "splashes"
	LayerSnow     = "snow"
	LayerHail     = "hail"
	LayerWind     = "wind"
	LayerMotes    = "motes"
)

// Input is everything a scene depends on.
type Input struct {
	Daytime    bool
	GoldenHour bool
	Condition  sky.Condition
}

// InputFor derives an Input from a mode and condition.
func InputFor(mode sky.Mode, cond sky.Condition) Input {
	return Input{
		Daytime:    mode.IsDaytime(),
		GoldenHour: mode.IsGoldenHour(),
		Condition:  cond,
	}
}

// Particle is one looping animated element. Positions and travel are
// viewport fractions; Size is in logical pixels. A zero Duration is static.
type Particle struct {
	Kind     Kind
	X, Y     float64
	DX, DY   float64
	Drift    float64
	Size     float64
	Rotation float64
	Opacity  float64
	Duration time.Duration
	Delay    time.Duration
}

// Layer is a named group of particles.
type Layer struct {
	Name      string
	Particles []Particle
}

// Tint is a uniform color wash over the whole scene.
type Tint struct {
	Color string
	Alpha float64
}

// Scene is the full overlay for one Input.
type Scene struct {
	Input     Input
	Layers    []Layer
	Tint      Tint
	Lightning bool
}

// Layer returns the named layer.
func (s Scene) Layer(name string) (Layer, bool) {
	for _, l := range s.Layers {
		if l.Name == name {
			return l, true
		}
	}
	return Layer{}, false
}

// Count returns how many particles of kind the scene holds.
func (s Scene) Count(kind Kind) int {
	n := 0
	for _, l := range s.Layers {
		for _, p := range l.Particles {
			if p.Kind == kind {
				n++
			}
		}
	}
	return n
}

type cloudTier struct {
	count   int
	opacity float64
}

func cloudTierFor(c sky.Condition) cloudTier {
	switch c {
	case sky.ConditionOvercast:
		return cloudTier{8, 0.85}
	case sky.ConditionStorm:
		return cloudTier{9, 0.9}
	case sky.ConditionCloudy:
		return cloudTier{6, 0.7}
	default:
		return cloudTier{3, 0.5}
	}
}

var tints = map[sky.Condition]Tint{
	sky.ConditionStorm:    {"#3a4a5c", 0.25},
	sky.ConditionRain:     {"#5a7088", 0.15},
	sky.ConditionSnow:     {"#e8f0ff", 0.12},
	sky.ConditionBlizzard: {"#f0f4ff", 0.2},
	sky.ConditionHail:     {"#8fa3b8", 0.15},
	sky.ConditionOvercast: {"#8a94a0", 0.12},
	sky.ConditionCloudy:   {"#b0bccb", 0.06},
	sky.ConditionWindy:    {"#c8b890", 0.05},
}

// TintFor returns the wash for a condition. Conditions without one get a
// zero Tint.
func TintFor(c sky.Condition) Tint {
	return tints[c]
}

// Compose builds the scene for in.
func Compose(in Input) Scene {
	s := Scene{Input: in, Tint: TintFor(in.Condition)}

	if in.Daytime {
		s.add(LayerClouds, clouds(cloudTierFor(in.Condition)))
		s.add(LayerAirplane, airplane())
		s.add(LayerBirds, birds())
	}
	if in.GoldenHour {
		s.add(LayerSkyline, skyline())
		s.add(LayerWhale, whale())
	}

	switch in.Condition {
	case sky.ConditionRain:
		s.add(LayerRain, rain(80, 0.55, false))
	case sky.ConditionStorm:
		s.add(LayerRain, rain(160, 0.75, true))
		s.add(LayerSplashes, splashes(30))
		s.Lightning = true
	case sky.ConditionSnow:
		s.add(LayerSnow, snow(60, 25, 1))
	case sky.ConditionBlizzard:
		s.add(LayerSnow, snow(140, 50, 3))
	case sky.ConditionHail:
		s.add(LayerHail, hail(50))
	case sky.ConditionWindy:
		s.add(LayerWind, swishes(12))
		s.add(LayerMotes, motes(20))
	}
	return s
}

func (s *Scene) add(name string, ps []Particle) {
	if len(ps) == 0 {
		return
	}
	s.Layers = append(s.Layers, Layer{Name: name, Particles: ps})
}

// rng returns a deterministic stream for a layer name.
func rng(name string) func() float64 {
	return seed.Named(name)
}

func between(rnd func() float64, lo, hi float64) float64 {
	return lo + rnd()*(hi-lo)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func clouds(tier cloudTier) []Particle {
	rnd := rng(LayerClouds)
	ps := make([]Particle, tier.count)
	for i := range ps {
		// Staggered per index so no two clouds move in step.
		ps[i] = Particle{
			Kind:     KindCloud,
			X:        -0.3,
			Y:        0.05 + float64(i%5)*0.07 + between(rnd, 0, 0.03),
			DX:       1.6,
			Size:     between(rnd, 50, 90),
			Opacity:  tier.opacity * between(rnd, 0.8, 1),
			Duration: seconds(60 + float64(i)*9),
			Delay:    seconds(float64(i) * 7.5),
		}
	}
	return ps
}

func airplane() []Particle {
	return []Particle{{
		Kind:     KindAirplane,
		X:        -0.1,
		Y:        0.12,
		DX:       1.2,
		DY:       -0.05,
		Size:     1,
		Opacity:  0.35,
		Duration: 45 * time.Second,
		Delay:    5 * time.Second,
	}}
}

func birds() []Particle {
	rnd := rng(LayerBirds)
	ps := make([]Particle, 3)
	for i := range ps {
		ps[i] = Particle{
			Kind:     KindBird,
			X:        1.1,
			Y:        0.18 + float64(i)*0.06,
			DX:       -1.2,
			Drift:    0.015,
			Size:     between(rnd, 3, 5),
			Opacity:  0.3,
			Duration: seconds(28 + float64(i)*6),
			Delay:    seconds(float64(i) * 11),
		}
	}
	return ps
}

func skyline() []Particle {
	rnd := rng(LayerSkyline)
	var ps []Particle
	for x := 0.0; x < 1; {
		w := between(rnd, 0.03, 0.07)
		ps = append(ps, Particle{
			Kind:    KindBuilding,
			X:       x,
			Y:       1 - between(rnd, 0.05, 0.16),
			Size:    w,
			Opacity: 0.55,
		})
		x += w
	}
	return ps
}

func whale() []Particle {
	return []Particle{{
		Kind:     KindWhale,
		X:        -0.15,
		Y:        0.3,
		DX:       1.3,
		Drift:    0.02,
		Size:     40,
		Opacity:  0.18,
		Duration: 90 * time.Second,
	}}
}

func rain(n int, opacity float64, storm bool) []Particle {
	rnd := rng(LayerRain)
	lo, hi := 0.7, 1.1
	if storm {
		lo, hi = 0.45, 0.65
	}
	ps := make([]Particle, n)
	for i := range ps {
		ps[i] = Particle{
			Kind:     KindRain,
			X:        rnd(),
			Y:        -0.1,
			DX:       -0.08,
			DY:       1.2,
			Size:     between(rnd, 10, 18),
			Rotation: 0.2,
			Opacity:  opacity * between(rnd, 0.6, 1),
			Duration: seconds(between(rnd, lo, hi)),
			Delay:    seconds(rnd() * 2),
		}
	}
	return ps
}

func splashes(n int) []Particle {
	rnd := rng(LayerSplashes)
	ps := make([]Particle, n)
	for i := range ps {
		ps[i] = Particle{
			Kind:     KindSplash,
			X:        rnd(),
			Y:        between(rnd, 0.94, 0.99),
			Size:     between(rnd, 3, 6),
			Opacity:  0.5,
			Duration: seconds(between(rnd, 0.6, 1.2)),
			Delay:    seconds(rnd() * 2),
		}
	}
	return ps
}

func snow(small, large int, driftScale float64) []Particle {
	rnd := rng(LayerSnow)
	fall := 1.0
	if driftScale > 1 {
		fall = 0.6
	}
	ps := make([]Particle, 0, small+large)
	for i := 0; i < small+large; i++ {
		size, dur := between(rnd, 1.2, 2.4), between(rnd, 8, 14)
		if i >= small {
			size, dur = between(rnd, 2.6, 4), between(rnd, 6, 10)
		}
		ps = append(ps, Particle{
			Kind:     KindFlake,
			X:        rnd(),
			Y:        -0.05,
			DX:       0.04 * driftScale,
			DY:       1.1,
			Drift:    0.02 * driftScale,
			Size:     size,
			Opacity:  between(rnd, 0.6, 0.95),
			Duration: seconds(dur * fall),
			Delay:    seconds(rnd() * 10),
		})
	}
	return ps
}

func hail(n int) []Particle {
	rnd := rng(LayerHail)
	ps := make([]Particle, n)
	for i := range ps {
		ps[i] = Particle{
			Kind:     KindHail,
			X:        rnd(),
			Y:        -0.05,
			DY:       1.02,
			Size:     between(rnd, 2, 3.5),
			Opacity:  0.85,
			Duration: seconds(between(rnd, 1.2, 1.8)),
			Delay:    seconds(rnd() * 2),
		}
	}
	return ps
}

func swishes(n int) []Particle {
	rnd := rng(LayerWind)
	ps := make([]Particle, n)
	for i := range ps {
		ps[i] = Particle{
			Kind:     KindSwish,
			X:        -0.2,
			Y:        between(rnd, 0.1, 0.8),
			DX:       1.4,
			DY:       0.1,
			Size:     between(rnd, 40, 90),
			Rotation: -0.12,
			Opacity:  between(rnd, 0.2, 0.4),
			Duration: seconds(between(rnd, 2.5, 4.5)),
			Delay:    seconds(float64(i) * 0.6),
		}
	}
	return ps
}

func motes(n int) []Particle {
	rnd := rng(LayerMotes)
	ps := make([]Particle, n)
	for i := range ps {
		ps[i] = Particle{
			Kind:     KindMote,
			X:        -0.05,
			Y:        rnd(),
			DX:       1.1,
			Drift:    0.03,
			Size:     between(rnd, 0.8, 1.6),
			Opacity:  between(rnd, 0.3, 0.6),
			Duration: seconds(between(rnd, 6, 12)),
			Delay:    seconds(rnd() * 8),
		}
	}
	return ps
}

// Sample evaluates p at elapsed time t and returns its position as
// viewport fractions and its alpha.
func Sample(p Particle, t time.Duration) (x, y, alpha float64) {
	if p.Duration <= 0 {
		return p.X, p.Y, p.Opacity
	}
	// Delay offsets the loop the way a negative animation delay does, so
	// every particle is mid-flight from the first frame.
	cycle := float64(p.Duration)
	phase := math.Mod(float64(t+p.Delay), cycle) / cycle
	if phase < 0 {
		phase++
	}

	x = p.X + p.DX*phase + p.Drift*math.Sin(4*math.Pi*phase)
	y = p.Y + p.DY*phase
	alpha = p.Opacity

	switch p.Kind {
	case KindSplash:
		alpha *= 1 - phase
	case KindHail:
		// Bounce off the ground over the last part of the cycle.
		if phase > 0.85 {
			b := (phase - 0.85) / 0.15
			y = p.Y + p.DY*0.85 - 0.04*math.Sin(math.Pi*b)
		}
	case KindCloud, KindBird, KindAirplane, KindWhale:
		alpha *= fade(phase)
	}
	return x, y, alpha
}

// fade ramps alpha in and out at the ends of a loop.
func fade(phase float64) float64 {
	const edge = 0.08
	switch {
	case phase < edge:
		return phase / edge
	case phase > 1-edge:
		return (1 - phase) / edge
	default:
		return 1
	}
}

// LightningCycle is the length of one storm flash timeline.
const LightningCycle = 7 * time.Second

type keyframe struct {
	at, v float64
}

// Several brief flashes per cycle, the third the brightest.
var lightningKeys = []keyframe{
	{0, 0},
	{0.40, 0}, {0.41, 0.9}, {0.43, 0},
	{0.45, 0}, {0.46, 0.6}, {0.47, 0},
	{0.48, 0}, {0.49, 1}, {0.51, 0},
	{0.80, 0}, {0.81, 0.7}, {0.83, 0},
	{1, 0},
}

// LightningIntensity returns the flash strength in [0,1] at elapsed t.
func LightningIntensity(t time.Duration) float64 {
	phase := math.Mod(float64(t), float64(LightningCycle)) / float64(LightningCycle)
	if phase < 0 {
		phase++
	}
	for i := 1; i < len(lightningKeys); i++ {
		a, b := lightningKeys[i-1], lightningKeys[i]
		if phase <= b.at {
			if b.at == a.at {
				return b.v
			}
			f := (phase - a.at) / (b.at - a.at)
			return a.v + (b.v-a.v)*f
		}
	}
	return 0
}
