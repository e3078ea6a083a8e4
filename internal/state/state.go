// Package state provides thread-safe state management for the application.
package state

import (
	"sync"
	"time"

	"github.com/litescript/ls-sky/internal/geo"
	"github.com/litescript/ls-sky/internal/sky"
)

// EventType represents the type of state change event.
type EventType string

const (
	EventModeChange     EventType = "MODE_CHANGE"
	EventWeatherChange  EventType = "WEATHER_CHANGE"
	EventOverrideChange EventType = "OVERRIDE_CHANGE"
	EventLocated        EventType = "LOCATED"
	EventLocateFailed   EventType = "LOCATE_FAILED"
)

// Event represents a change in the resolved sky.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Detail    string    `json:"detail,omitempty"`
}

// HistoryEntry is one successful weather reading.
type HistoryEntry struct {
	Timestamp   time.Time
	Observation sky.Observation
	Condition   sky.Condition
}

// Manager handles all shared application state with thread-safe access.
type Manager struct {
	mu sync.RWMutex

	// Time of day
	mode   sky.Mode
	modeAt time.Time

	// Location
	position  *geo.Position
	locateErr error

	// Weather
	observation   sky.Observation
	condition     sky.Condition
	updatedAt     time.Time
	lastFetch     time.Time
	lastError     error
	fetchDuration time.Duration

	// History buffer
	history       []HistoryEntry
	maxHistoryLen int

	// Event log (ring buffer)
	events       []Event
	maxEvents    int
	eventWriteAt int

	// Configuration
	modeInterval    time.Duration
	weatherInterval time.Duration
}

// Config holds configuration for the state manager.
type Config struct {
	MaxHistoryLen   int
	MaxEvents       int
	ModeInterval    time.Duration
	WeatherInterval time.Duration
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		MaxHistoryLen:   36, // ~6 hours at one fetch per 10 minutes
		MaxEvents:       50,
		ModeInterval:    60 * time.Second,
		WeatherInterval: 10 * time.Minute,
	}
}

// NewManager creates a new state manager. Weather starts unknown.
func NewManager(cfg Config) *Manager {
	maxEvents := cfg.MaxEvents
	if maxEvents <= 0 {
		maxEvents = 50
	}
	return &Manager{
		observation:     sky.NewObservation(),
		condition:       sky.ConditionUnknown,
		maxHistoryLen:   cfg.MaxHistoryLen,
		maxEvents:       maxEvents,
		events:          make([]Event, 0, maxEvents),
		modeInterval:    cfg.ModeInterval,
		weatherInterval: cfg.WeatherInterval,
	}
}

// SetMode records the computed mode. It reports whether the mode changed.
func (m *Manager) SetMode(mode sky.Mode, at time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.mode
	m.mode = mode
	m.modeAt = at
	if prev == mode {
		return false
	}
	m.addEvent(Event{
		Type:      EventModeChange,
		Timestamp: at,
		From:      string(prev),
		To:        string(mode),
	})
	return true
}

// SetPosition records the outcome of the one-shot position request.
func (m *Manager) SetPosition(pos geo.Position, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.position = nil
		m.locateErr = err
		m.addEvent(Event{Type: EventLocateFailed, Timestamp: time.Now(), Detail: err.Error()})
		return
	}
	p := pos
	m.position = &p
	m.locateErr = nil
	m.addEvent(Event{Type: EventLocated, Timestamp: time.Now(), Detail: pos.String()})
}

// Update records a weather fetch. A failed fetch keeps the previous
// observation and condition. It reports whether the condition changed.
func (m *Manager) Update(obs sky.Observation, cond sky.Condition, fetchDuration time.Duration, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastFetch = now
	m.lastError = err
	m.fetchDuration = fetchDuration

	if err != nil {
		return false
	}

	prev := m.condition
	m.observation = obs
	m.condition = cond
	m.updatedAt = now

	m.history = append(m.history, HistoryEntry{Timestamp: now, Observation: obs, Condition: cond})
	if m.maxHistoryLen > 0 && len(m.history) > m.maxHistoryLen {
		m.history = m.history[1:]
	}

	if prev == cond {
		return false
	}
	m.addEvent(Event{
		Type:      EventWeatherChange,
		Timestamp: now,
		From:      string(prev),
		To:        string(cond),
	})
	return true
}

// RecordOverride logs a manual pin change. Empty values mean automatic.
func (m *Manager) RecordOverride(mode sky.Mode, weather sky.Condition) {
	m.mu.Lock()
	defer m.mu.Unlock()

	to := "auto/auto"
	if mode != "" || weather != "" {
		to = orAuto(string(mode)) + "/" + orAuto(string(weather))
	}
	m.addEvent(Event{Type: EventOverrideChange, Timestamp: time.Now(), To: to})
}

func orAuto(s string) string {
	if s == "" {
		return "auto"
	}
	return s
}

// addEvent adds an event to the ring buffer.
func (m *Manager) addEvent(e Event) {
	if len(m.events) < m.maxEvents {
		m.events = append(m.events, e)
	} else {
		m.events[m.eventWriteAt] = e
		m.eventWriteAt = (m.eventWriteAt + 1) % m.maxEvents
	}
}

// Snapshot represents an immutable snapshot of current state.
type Snapshot struct {
	Mode          sky.Mode
	ModeAt        time.Time
	Position      *geo.Position
	LocateError   error
	Observation   sky.Observation
	Condition     sky.Condition
	UpdatedAt     time.Time
	LastFetch     time.Time
	LastError     error
	FetchDuration time.Duration
	History       []HistoryEntry
	Events        []Event
}

// Snapshot returns a consistent snapshot of current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var pos *geo.Position
	if m.position != nil {
		p := *m.position
		pos = &p
	}

	hist := make([]HistoryEntry, len(m.history))
	copy(hist, m.history)

	return Snapshot{
		Mode:          m.mode,
		ModeAt:        m.modeAt,
		Position:      pos,
		LocateError:   m.locateErr,
		Observation:   m.observation,
		Condition:     m.condition,
		UpdatedAt:     m.updatedAt,
		LastFetch:     m.lastFetch,
		LastError:     m.lastError,
		FetchDuration: m.fetchDuration,
		History:       hist,
		Events:        m.getEventsOrdered(),
	}
}

// getEventsOrdered returns events in chronological order.
func (m *Manager) getEventsOrdered() []Event {
	if len(m.events) == 0 {
		return nil
	}

	// If buffer isn't full yet, just copy
	if len(m.events) < m.maxEvents {
		result := make([]Event, len(m.events))
		copy(result, m.events)
		return result
	}

	// Ring buffer is full, reorder from oldest to newest
	result := make([]Event, m.maxEvents)
	for i := 0; i < m.maxEvents; i++ {
		idx := (m.eventWriteAt + i) % m.maxEvents
		result[i] = m.events[idx]
	}
	return result
}

// ModeInterval returns how often the mode is recomputed.
func (m *Manager) ModeInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.modeInterval
}

// WeatherInterval returns how often weather is refreshed.
func (m *Manager) WeatherInterval() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.weatherInterval
}
