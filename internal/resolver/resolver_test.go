package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/litescript/ls-sky/internal/forecast"
	"github.com/litescript/ls-sky/internal/geo"
	"github.com/litescript/ls-sky/internal/override"
	"github.com/litescript/ls-sky/internal/sky"
	"github.com/litescript/ls-sky/internal/state"
)

type fakeLocator struct {
	pos   geo.Position
	err   error
	mu    sync.Mutex
	calls int
}

func (f *fakeLocator) Locate(ctx context.Context) (geo.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.pos, f.err
}

func (f *fakeLocator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeWeather struct {
	mu      sync.Mutex
	results []forecast.FetchResult
	calls   int
}

func (f *fakeWeather) Fetch(ctx context.Context, lat, lon float64) forecast.FetchResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i]
}

func (f *fakeWeather) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func okResult(code int, wind float64) forecast.FetchResult {
	obs := sky.NewObservation()
	obs.Code = code
	obs.WindSpeed = wind
	return forecast.FetchResult{Observation: obs, Condition: sky.Classify(obs), Duration: time.Millisecond}
}

func failResult(err error) forecast.FetchResult {
	return forecast.FetchResult{Observation: sky.NewObservation(), Condition: sky.ConditionUnknown, Error: err}
}

type recordingObserver struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingObserver) ObserveFetch(d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 1, hour, minute, 0, 0, time.Local)
}

func TestTickMode(t *testing.T) {
	mgr := state.NewManager(state.DefaultConfig())
	r := New(mgr, nil, nil)

	var changes int
	r.OnChange(func(state.Snapshot) { changes++ })

	assert.True(t, r.TickMode(at(6, 59)))
	assert.Equal(t, sky.ModeDawn, mgr.Snapshot().Mode)

	assert.True(t, r.TickMode(at(7, 0)))
	assert.Equal(t, sky.ModeMorning, mgr.Snapshot().Mode)

	assert.False(t, r.TickMode(at(7, 1)), "same mode should not notify")
	assert.Equal(t, 2, changes)
}

func TestRefreshWeather_WithoutPosition(t *testing.T) {
	mgr := state.NewManager(state.DefaultConfig())
	r := New(mgr, nil, &fakeWeather{results: []forecast.FetchResult{okResult(0, 0)}})

	err := r.RefreshWeather(context.Background())
	assert.ErrorIs(t, err, geo.ErrUnavailable)
	assert.Equal(t, sky.ConditionUnknown, mgr.Snapshot().Condition)
}

func TestRefreshWeather_EndToEndRain(t *testing.T) {
	mgr := state.NewManager(state.DefaultConfig())
	weather := &fakeWeather{results: []forecast.FetchResult{okResult(61, 3)}}
	obs := &recordingObserver{}
	r := New(mgr, nil, weather, WithFetchObserver(obs))
	r.SetPosition(geo.Position{Latitude: 52.5, Longitude: 13.4})
	r.TickMode(at(15, 0))

	require.NoError(t, r.RefreshWeather(context.Background()))

	res := Effective(mgr.Snapshot(), override.Default())
	assert.Equal(t, sky.ModeAfternoon, res.Mode)
	assert.Equal(t, sky.ConditionRain, res.Weather)
	assert.False(t, res.ManualMode)
	assert.False(t, res.ManualWeather)
	assert.Len(t, obs.errs, 1)
}

func TestRefreshWeather_FailureKeepsPrevious(t *testing.T) {
	mgr := state.NewManager(state.DefaultConfig())
	boom := errors.New("boom")
	weather := &fakeWeather{results: []forecast.FetchResult{okResult(71, 1), failResult(boom)}}
	r := New(mgr, nil, weather)
	r.SetPosition(geo.Position{Latitude: 60, Longitude: 10})

	require.NoError(t, r.RefreshWeather(context.Background()))
	err := r.RefreshWeather(context.Background())
	assert.ErrorIs(t, err, boom)

	snap := mgr.Snapshot()
	assert.Equal(t, sky.ConditionSnow, snap.Condition)
	assert.ErrorIs(t, snap.LastError, boom)
}

func TestEffective_OverridePrecedence(t *testing.T) {
	mgr := state.NewManager(state.DefaultConfig())
	mgr.SetMode(sky.ModeAt(at(23, 0)), at(23, 0))

	o := override.Default()
	o.Mode = sky.ModeNoon
	res := Effective(mgr.Snapshot(), o)
	assert.Equal(t, sky.ModeNoon, res.Mode)
	assert.True(t, res.ManualMode)

	o.Mode = ""
	res = Effective(mgr.Snapshot(), o)
	assert.Equal(t, sky.ModeNight, res.Mode)
	assert.False(t, res.ManualMode)
}

func TestEffective_ManualWeather(t *testing.T) {
	mgr := state.NewManager(state.DefaultConfig())
	mgr.Update(okResult(0, 0).Observation, sky.ConditionSunny, 0, nil)

	o := override.Default()
	o.Weather = sky.ConditionBlizzard
	res := Effective(mgr.Snapshot(), o)
	assert.Equal(t, sky.ConditionBlizzard, res.Weather)
	assert.True(t, res.ManualWeather)
}

func TestEffective_EmptyStateDefaults(t *testing.T) {
	res := Effective(state.Snapshot{}, override.Default())
	assert.Equal(t, sky.ModeNight, res.Mode)
	assert.Equal(t, sky.ConditionUnknown, res.Weather)
}

func TestRun_LocatesOnceAndFetches(t *testing.T) {
	defer goleak.VerifyNone(t)

	mgr := state.NewManager(state.DefaultConfig())
	loc := &fakeLocator{pos: geo.Position{Latitude: 1, Longitude: 2}}
	weather := &fakeWeather{results: []forecast.FetchResult{okResult(95, 0)}}
	r := New(mgr, loc, weather, WithClock(func() time.Time { return at(21, 0) }))

	got := make(chan sky.Condition, 4)
	r.OnChange(func(s state.Snapshot) {
		if s.Condition != sky.ConditionUnknown {
			got <- s.Condition
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case c := <-got:
		assert.Equal(t, sky.ConditionStorm, c)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for weather")
	}

	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, 1, loc.Calls())
	assert.Equal(t, 1, weather.Calls())
	assert.Equal(t, sky.ModeNight, mgr.Snapshot().Mode)
}

func TestRun_LocateFailureIsPermanentUnknown(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := state.DefaultConfig()
	cfg.ModeInterval = 10 * time.Millisecond
	cfg.WeatherInterval = 10 * time.Millisecond
	mgr := state.NewManager(cfg)
	loc := &fakeLocator{err: geo.ErrUnavailable}
	weather := &fakeWeather{results: []forecast.FetchResult{okResult(0, 0)}}
	r := New(mgr, loc, weather)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	require.NoError(t, r.Run(ctx))

	assert.Equal(t, 1, loc.Calls(), "position must not be retried")
	assert.Equal(t, 0, weather.Calls())
	snap := mgr.Snapshot()
	assert.Equal(t, sky.ConditionUnknown, snap.Condition)
	assert.ErrorIs(t, snap.LocateError, geo.ErrUnavailable)
}

func TestRun_NoSources(t *testing.T) {
	defer goleak.VerifyNone(t)

	mgr := state.NewManager(state.DefaultConfig())
	r := New(mgr, nil, nil, WithClock(func() time.Time { return at(12, 0) }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	require.NoError(t, r.Run(ctx))
	assert.Equal(t, sky.ModeNoon, mgr.Snapshot().Mode)
	assert.Equal(t, sky.ConditionUnknown, mgr.Snapshot().Condition)
}
