package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/litescript/ls-sky/internal/geo"
	"github.com/litescript/ls-sky/internal/sky"
)

func rainObservation() sky.Observation {
	obs := sky.NewObservation()
	obs.Code = 61
	obs.WindSpeed = 3
	return obs
}

func TestNewManager(t *testing.T) {
	cfg := DefaultConfig()
	m := NewManager(cfg)

	if m == nil {
		t.Fatal("NewManager returned nil")
	}

	if m.WeatherInterval() != cfg.WeatherInterval {
		t.Errorf("WeatherInterval = %v, want %v", m.WeatherInterval(), cfg.WeatherInterval)
	}
	if m.ModeInterval() != 60*time.Second {
		t.Errorf("ModeInterval = %v, want 60s", m.ModeInterval())
	}

	snap := m.Snapshot()
	if !snap.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be zero before any fetch")
	}
	if snap.Condition != sky.ConditionUnknown {
		t.Errorf("initial condition = %q, want unknown", snap.Condition)
	}
}

func TestManager_SetMode(t *testing.T) {
	m := NewManager(DefaultConfig())
	at := time.Date(2024, 6, 1, 15, 0, 0, 0, time.Local)

	if !m.SetMode(sky.ModeAfternoon, at) {
		t.Error("first SetMode should report a change")
	}
	if m.SetMode(sky.ModeAfternoon, at.Add(time.Minute)) {
		t.Error("repeated SetMode should not report a change")
	}
	if !m.SetMode(sky.ModeDusk, at.Add(2*time.Hour)) {
		t.Error("SetMode to a new mode should report a change")
	}

	events := m.Snapshot().Events
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	last := events[1]
	if last.Type != EventModeChange || last.From != "afternoon" || last.To != "dusk" {
		t.Errorf("last event = %+v, want MODE_CHANGE afternoon->dusk", last)
	}

	snap := m.Snapshot()
	if snap.Mode != sky.ModeDusk {
		t.Errorf("Mode = %q, want dusk", snap.Mode)
	}
}

func TestManager_Update(t *testing.T) {
	m := NewManager(DefaultConfig())

	changed := m.Update(rainObservation(), sky.ConditionRain, 100*time.Millisecond, nil)
	if !changed {
		t.Error("unknown -> rain should report a change")
	}

	snap := m.Snapshot()
	if snap.Condition != sky.ConditionRain {
		t.Errorf("Condition = %q, want rain", snap.Condition)
	}
	if snap.Observation.Code != 61 {
		t.Errorf("Observation.Code = %d, want 61", snap.Observation.Code)
	}
	if snap.FetchDuration != 100*time.Millisecond {
		t.Errorf("FetchDuration = %v, want 100ms", snap.FetchDuration)
	}
	if snap.LastError != nil {
		t.Errorf("LastError = %v, want nil", snap.LastError)
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestManager_UpdateWithErrorKeepsPrevious(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Update(rainObservation(), sky.ConditionRain, 0, nil)
	before := m.Snapshot()

	testErr := errors.New("fetch failed")
	if m.Update(sky.NewObservation(), sky.ConditionUnknown, 50*time.Millisecond, testErr) {
		t.Error("failed fetch should not report a change")
	}

	snap := m.Snapshot()
	if snap.Condition != sky.ConditionRain {
		t.Errorf("Condition = %q, want rain kept", snap.Condition)
	}
	if snap.Observation.Code != 61 {
		t.Errorf("Observation.Code = %d, want 61 kept", snap.Observation.Code)
	}
	if snap.LastError != testErr {
		t.Errorf("LastError = %v, want %v", snap.LastError, testErr)
	}
	if !snap.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("UpdatedAt should not move on failure")
	}
}

func TestManager_UpdateWithErrorBeforeData(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Update(sky.NewObservation(), sky.ConditionUnknown, 0, errors.New("boom"))

	snap := m.Snapshot()
	if !snap.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should stay zero after a failed first fetch")
	}
	if len(snap.History) != 0 {
		t.Errorf("history length = %d, want 0", len(snap.History))
	}
	if snap.Condition != sky.ConditionUnknown {
		t.Errorf("Condition = %q, want unknown", snap.Condition)
	}
}

func TestManager_SetPosition(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.SetPosition(geo.Position{}, geo.ErrUnavailable)
	snap := m.Snapshot()
	if snap.Position != nil {
		t.Error("Position should be nil after failure")
	}
	if !errors.Is(snap.LocateError, geo.ErrUnavailable) {
		t.Errorf("LocateError = %v, want ErrUnavailable", snap.LocateError)
	}

	m.SetPosition(geo.Position{Latitude: 1, Longitude: 2}, nil)
	snap = m.Snapshot()
	if snap.Position == nil || snap.Position.Latitude != 1 {
		t.Errorf("Position = %+v, want lat 1", snap.Position)
	}

	events := m.Snapshot().Events
	if len(events) != 2 || events[0].Type != EventLocateFailed || events[1].Type != EventLocated {
		t.Errorf("events = %+v, want LOCATE_FAILED then LOCATED", events)
	}
}

func TestManager_HistoryBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxHistoryLen = 3
	m := NewManager(cfg)

	// Add 5 updates
	for i := 0; i < 5; i++ {
		obs := sky.NewObservation()
		obs.Code = i
		m.Update(obs, sky.ConditionForCode(i), 0, nil)
	}

	snap := m.Snapshot()
	if len(snap.History) != 3 {
		t.Fatalf("history length = %d, want 3", len(snap.History))
	}
	if snap.History[0].Observation.Code != 2 {
		t.Errorf("oldest kept code = %d, want 2", snap.History[0].Observation.Code)
	}
}

func TestManager_Snapshot_IsCopy(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.SetPosition(geo.Position{Latitude: 5, Longitude: 6}, nil)
	m.Update(rainObservation(), sky.ConditionRain, 0, nil)

	snap := m.Snapshot()
	snap.Position.Latitude = 99
	snap.History[0].Condition = sky.ConditionStorm

	snap2 := m.Snapshot()
	if snap2.Position.Latitude == 99 {
		t.Error("Snapshot position modification affected manager state")
	}
	if snap2.History[0].Condition == sky.ConditionStorm {
		t.Error("Snapshot history modification affected manager state")
	}
}

func TestManager_RecordOverride(t *testing.T) {
	m := NewManager(DefaultConfig())

	m.RecordOverride(sky.ModeNoon, "")
	m.RecordOverride("", "")

	events := m.Snapshot().Events
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventOverrideChange || events[0].To != "noon/auto" {
		t.Errorf("first event = %+v, want OVERRIDE_CHANGE noon/auto", events[0])
	}
	if events[1].To != "auto/auto" {
		t.Errorf("second event To = %q, want auto/auto", events[1].To)
	}
}

func TestManager_ConcurrentAccess(t *testing.T) {
	m := NewManager(DefaultConfig())

	var wg sync.WaitGroup
	iterations := 100

	// Writer goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < iterations; i++ {
			obs := sky.NewObservation()
			obs.Code = i % 100
			m.Update(obs, sky.Classify(obs), time.Duration(i)*time.Millisecond, nil)
			m.SetMode(sky.ModeForHour(i%24), time.Now())
		}
	}()

	// Reader goroutines
	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < iterations; i++ {
				_ = m.Snapshot()
				_ = m.WeatherInterval()
			}
		}()
	}

	wg.Wait()
}

func TestManager_EventRingBuffer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxEvents = 5
	m := NewManager(cfg)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 24; i++ {
		m.SetMode(sky.ModeForHour(i), base.Add(time.Duration(i)*time.Hour))
	}

	events := m.Snapshot().Events
	if len(events) != 5 {
		t.Errorf("events count = %d, want 5 (max)", len(events))
	}

	// Verify events are ordered chronologically
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp.Before(events[i-1].Timestamp) {
			t.Errorf("events not in chronological order at index %d", i)
		}
	}
}

func TestManager_Snapshot_IncludesEvents(t *testing.T) {
	m := NewManager(DefaultConfig())
	m.Update(rainObservation(), sky.ConditionRain, 0, nil)

	snap := m.Snapshot()
	if len(snap.Events) == 0 {
		t.Fatal("Snapshot should include events")
	}
	if snap.Events[0].Type != EventWeatherChange {
		t.Errorf("event type = %q, want WEATHER_CHANGE", snap.Events[0].Type)
	}
	if snap.Events[0].From != "unknown" || snap.Events[0].To != "rain" {
		t.Errorf("event = %+v, want unknown->rain", snap.Events[0])
	}
}
