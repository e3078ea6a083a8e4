package astro

import (
	"fmt"
	"sync"
	"time"

	"github.com/sj14/astral/pkg/astral"
)

// SunTimes holds sunrise and sunset for one date.
type SunTimes struct {
	Sunrise time.Time
	Sunset  time.Time
}

// SunPath places the sun along its daily arc for one observer.
// Sunrise/sunset are cached per calendar date.
type SunPath struct {
	observer astral.Observer
	obs      Observer

	mu    sync.RWMutex
	cache map[string]SunTimes
}

// NewSunPath returns a SunPath for the given coordinates.
func NewSunPath(obs Observer) *SunPath {
	return &SunPath{
		observer: astral.Observer{Latitude: obs.LatDeg, Longitude: obs.LonDeg},
		obs:      obs,
		cache:    make(map[string]SunTimes),
	}
}

// Times returns sunrise and sunset for the date of t.
func (p *SunPath) Times(t time.Time) (SunTimes, error) {
	key := t.Format("2006-01-02")

	p.mu.RLock()
	st, ok := p.cache[key]
	p.mu.RUnlock()
	if ok {
		return st, nil
	}

	rise, err := astral.Sunrise(p.observer, t)
	if err != nil {
		return SunTimes{}, fmt.Errorf("calculate sunrise: %w", err)
	}
	set, err := astral.Sunset(p.observer, t)
	if err != nil {
		return SunTimes{}, fmt.Errorf("calculate sunset: %w", err)
	}
	st = SunTimes{Sunrise: rise.In(t.Location()), Sunset: set.In(t.Location())}

	p.mu.Lock()
	p.cache[key] = st
	p.mu.Unlock()
	return st, nil
}

// Progress returns how far t is through the day's daylight, 0 at sunrise
// and 1 at sunset. ok is false when the sun is down or the times cannot be
// computed (polar day/night).
func (p *SunPath) Progress(t time.Time) (progress float64, ok bool) {
	st, err := p.Times(t)
	if err != nil {
		return 0, false
	}
	if t.Before(st.Sunrise) || t.After(st.Sunset) {
		return 0, false
	}
	span := st.Sunset.Sub(st.Sunrise)
	if span <= 0 {
		return 0, false
	}
	return float64(t.Sub(st.Sunrise)) / float64(span), true
}

// Elevation returns the sun's elevation in degrees at t. It is negative
// while the sun is below the horizon.
func (p *SunPath) Elevation(t time.Time) float64 {
	return SunElevation(p.obs, t)
}
