// Package resolver keeps the computed time-of-day mode and weather
// condition current, and merges them with manual overrides.
package resolver

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/litescript/ls-sky/internal/forecast"
	"github.com/litescript/ls-sky/internal/geo"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/override"
	"github.com/litescript/ls-sky/internal/sky"
	"github.com/litescript/ls-sky/internal/state"
)

// WeatherSource fetches current conditions at a position.
type WeatherSource interface {
	Fetch(ctx context.Context, lat, lon float64) forecast.FetchResult
}

// FetchObserver is told about every weather fetch.
type FetchObserver interface {
	ObserveFetch(d time.Duration, err error)
}

// Resolver drives the mode clock and weather refresh into a state.Manager.
type Resolver struct {
	state    *state.Manager
	locator  geo.Locator
	weather  WeatherSource
	logger   *logging.Logger
	now      func() time.Time
	fetchObs FetchObserver

	mu       sync.Mutex
	position *geo.Position
	onChange []func(state.Snapshot)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithFetchObserver reports fetch outcomes to obs.
func WithFetchObserver(obs FetchObserver) Option {
	return func(r *Resolver) {
		r.fetchObs = obs
	}
}

// New creates a resolver. A nil locator or weather source leaves the
// condition unknown.
func New(mgr *state.Manager, locator geo.Locator, weather WeatherSource, opts ...Option) *Resolver {
	r := &Resolver{
		state:   mgr,
		locator: locator,
		weather: weather,
		logger:  logging.Discard(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnChange registers fn to run whenever the computed mode or weather changes.
func (r *Resolver) OnChange(fn func(state.Snapshot)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = append(r.onChange, fn)
}

func (r *Resolver) notify() {
	r.mu.Lock()
	fns := make([]func(state.Snapshot), len(r.onChange))
	copy(fns, r.onChange)
	r.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	snap := r.state.Snapshot()
	for _, fn := range fns {
		fn(snap)
	}
}

// Run computes the mode now and every mode interval, and in parallel
// locates once and refreshes weather every weather interval. A failed
// position request is never retried. Run blocks until ctx is done.
func (r *Resolver) Run(ctx context.Context) error {
	r.TickMode(r.now())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.runWeather(ctx)
	}()

	ticker := time.NewTicker(r.state.ModeInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Debug("Resolver shutting down")
			wg.Wait()
			return nil
		case <-ticker.C:
			r.TickMode(r.now())
		}
	}
}

func (r *Resolver) runWeather(ctx context.Context) {
	if r.locator == nil || r.weather == nil {
		r.logger.Debug("No weather source configured, condition stays unknown")
		return
	}

	pos, err := r.locator.Locate(ctx)
	r.state.SetPosition(pos, err)
	if err != nil {
		r.logger.Warn("Position unavailable, weather stays unknown: %v", err)
		return
	}
	r.logger.Info("Located at %s (%s)", pos, pos.Source)

	r.mu.Lock()
	r.position = &pos
	r.mu.Unlock()

	_ = r.RefreshWeather(ctx)

	ticker := time.NewTicker(r.state.WeatherInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = r.RefreshWeather(ctx)
		}
	}
}

// TickMode recomputes the mode for now. It reports whether it changed.
func (r *Resolver) TickMode(now time.Time) bool {
	mode := sky.ModeAt(now)
	if !r.state.SetMode(mode, now) {
		return false
	}
	r.logger.Debug("Mode changed to %s", mode)
	r.notify()
	return true
}

// RefreshWeather fetches weather for the known position. Without a fix it
// returns geo.ErrUnavailable. A failed fetch keeps the previous condition.
func (r *Resolver) RefreshWeather(ctx context.Context) error {
	r.mu.Lock()
	pos := r.position
	r.mu.Unlock()

	if pos == nil || r.weather == nil {
		return fmt.Errorf("refresh weather: %w", geo.ErrUnavailable)
	}

	r.logger.Debug("Fetching weather for %s...", pos)
	result := r.weather.Fetch(ctx, pos.Latitude, pos.Longitude)
	if r.fetchObs != nil {
		r.fetchObs.ObserveFetch(result.Duration, result.Error)
	}

	if result.Error != nil {
		r.logger.Warn("Weather fetch failed: %v", result.Error)
		r.state.Update(result.Observation, result.Condition, result.Duration, result.Error)
		return result.Error
	}

	r.logger.Debug("Weather: %s (code %d) in %v", result.Condition, result.Observation.Code, result.Duration)
	if r.state.Update(result.Observation, result.Condition, result.Duration, nil) {
		r.logger.Info("Weather changed to %s", result.Condition)
		r.notify()
	}
	return nil
}

// SetPosition supplies a fix directly, e.g. from configuration.
func (r *Resolver) SetPosition(pos geo.Position) {
	r.state.SetPosition(pos, nil)
	r.mu.Lock()
	r.position = &pos
	r.mu.Unlock()
}

// Resolved is the mode and weather the sky should show.
type Resolved struct {
	Mode          sky.Mode      `json:"mode"`
	Weather       sky.Condition `json:"weather"`
	ManualMode    bool          `json:"manual_mode"`
	ManualWeather bool          `json:"manual_weather"`
}

// Effective merges an override over computed state. A pinned value
// replaces the computed one entirely.
func Effective(snap state.Snapshot, o override.Override) Resolved {
	res := Resolved{Mode: snap.Mode, Weather: snap.Condition}
	if res.Mode == "" {
		res.Mode = sky.ModeNight
	}
	if res.Weather == "" {
		res.Weather = sky.ConditionUnknown
	}
	if o.Mode != "" {
		res.Mode = o.Mode
		res.ManualMode = true
	}
	if o.Weather != "" {
		res.Weather = o.Weather
		res.ManualWeather = true
	}
	return res
}
