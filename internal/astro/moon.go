package astro

import (
	"math"
	"time"
)

// SynodicMonth is the mean new-moon-to-new-moon period in days.
const SynodicMonth = 29.530588853

// referenceNewMoon is a known new moon (2000-01-06 18:14 UTC).
var referenceNewMoon = time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC)

// MoonPhase returns the lunation fraction at t in [0,1):
// 0 new, 0.25 first quarter, 0.5 full, 0.75 last quarter.
func MoonPhase(t time.Time) float64 {
	days := t.Sub(referenceNewMoon).Hours() / 24
	p := math.Mod(days/SynodicMonth, 1)
	if p < 0 {
		p++
	}
	return p
}

// MoonIllumination returns the illuminated fraction of the disk for a phase.
func MoonIllumination(phase float64) float64 {
	return (1 - math.Cos(2*math.Pi*phase)) / 2
}

// MoonShadowOffset returns the horizontal offset, in radii, of the shadow
// disk drawn over a lit moon disk. Zero covers the moon fully (new); an
// offset of ±2 clears it (full). Waxing moons are lit on the right, so the
// shadow moves left.
func MoonShadowOffset(phase float64) float64 {
	if phase < 0.5 {
		return -2 * (phase / 0.5)
	}
	return 2 * ((1 - phase) / 0.5)
}
