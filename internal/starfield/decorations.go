package starfield

import (
	"math"

	"github.com/litescript/ls-sky/internal/seed"
	"github.com/litescript/ls-sky/internal/sky"
)

// Galaxy is a rotated soft ellipse. Positions are viewport fractions.
type Galaxy struct {
	X, Y   float64
	RX, RY float64
	Rot    float64
	Color  string
	Phase  float64
}

// Cluster is a pulsing soft blob.
type Cluster struct {
	X, Y  float64
	R     float64
	Color string
	Phase float64
}

// Planet is a small disk, optionally ringed.
type Planet struct {
	X, Y  float64
	R     float64
	Color string
	Ring  bool
	Tilt  float64
}

// Decorations is the celestial layout for one epoch and mode.
type Decorations struct {
	Epoch    int64
	Mode     sky.Mode
	Galaxies []Galaxy
	Clusters []Cluster
	Planets  []Planet
}

var (
	galaxyColors  = []string{"#b9a7ff", "#9fc6ff", "#ffc6e8"}
	clusterColors = []string{"#cfe3ff", "#fff1c9", "#e0d4ff"}
	planetColors  = []string{"#ffd59e", "#ffb3a7", "#c9e4ff"}
)

// decorationCounts returns galaxies, clusters, planets for a mode.
func decorationCounts(m sky.Mode) (int, int, int) {
	switch m {
	case sky.ModeNight:
		return 3, 4, 2
	case sky.ModeDawn, sky.ModeDusk:
		return 2, 2, 1
	case sky.ModeMorning, sky.ModeAfternoon:
		return 1, 1, 1
	default:
		return 0, 0, 0
	}
}

// DecorationsFor lays out decorations for an epoch and mode. The same
// inputs always produce the same layout.
func DecorationsFor(epoch int64, mode sky.Mode) Decorations {
	rnd := seed.Mulberry32(seed.EpochSeed(epoch, mode))
	between := func(lo, hi float64) float64 { return lo + rnd()*(hi-lo) }
	pick := func(colors []string) string {
		return colors[min(int(rnd()*float64(len(colors))), len(colors)-1)]
	}

	d := Decorations{Epoch: epoch, Mode: mode}
	ng, nc, np := decorationCounts(mode)

	for i := 0; i < ng; i++ {
		rx := between(30, 70)
		d.Galaxies = append(d.Galaxies, Galaxy{
			X:     between(0.05, 0.95),
			Y:     between(0.05, 0.55),
			RX:    rx,
			RY:    rx * between(0.35, 0.5),
			Rot:   between(0, math.Pi),
			Color: pick(galaxyColors),
			Phase: between(0, 2*math.Pi),
		})
	}
	for i := 0; i < nc; i++ {
		d.Clusters = append(d.Clusters, Cluster{
			X:     between(0.05, 0.95),
			Y:     between(0.05, 0.6),
			R:     between(18, 40),
			Color: pick(clusterColors),
			Phase: between(0, 2*math.Pi),
		})
	}
	for i := 0; i < np; i++ {
		d.Planets = append(d.Planets, Planet{
			X:     between(0.1, 0.9),
			Y:     between(0.08, 0.5),
			R:     between(2.5, 5),
			Color: pick(planetColors),
			Ring:  rnd() < 0.4,
			Tilt:  between(-0.5, 0.5),
		})
	}
	return d
}
