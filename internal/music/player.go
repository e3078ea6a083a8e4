package music

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/litescript/ls-sky/internal/logging"
)

// DefaultVolume is the playback level when none is configured.
const DefaultVolume = 0.3

// Output is the audio device.
type Output interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Lock()
	Unlock()
	Close()
}

type speakerOutput struct{}

func (speakerOutput) Init(sr beep.SampleRate, bufferSize int) error {
	return speaker.Init(sr, bufferSize)
}
func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }
func (speakerOutput) Close()               { speaker.Clear() }

// Player owns the single background loop.
type Player struct {
	mu     sync.Mutex
	out    Output
	logger *logging.Logger

	mixer  *beep.Mixer
	ctrl   *beep.Ctrl
	volume *effects.Volume

	track       Track
	level       float64
	initialized bool
	failed      bool
}

// Option configures a Player.
type Option func(*Player)

// WithOutput replaces the system speaker.
func WithOutput(out Output) Option {
	return func(p *Player) {
		p.out = out
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(p *Player) {
		p.logger = l
	}
}

// NewPlayer creates a silent player. The device is opened on first play.
func NewPlayer(opts ...Option) *Player {
	p := &Player{
		out:    speakerOutput{},
		logger: logging.Discard(),
		mixer:  &beep.Mixer{},
		level:  DefaultVolume,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Apply brings playback in line with the preference and the wanted track.
// Asking for the track already playing only adjusts the volume. When the
// audio device cannot be opened the player stays silent for good.
func (p *Player) Apply(enabled bool, level float64, t Track) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.level = clampLevel(level)
	if !enabled || t == TrackNone {
		p.pauseLocked()
		return
	}
	if !p.initLocked() {
		return
	}

	p.out.Lock()
	defer p.out.Unlock()

	if t == p.track && p.ctrl != nil {
		p.ctrl.Paused = false
		setLevel(p.volume, p.level)
		return
	}

	p.mixer.Clear()
	p.ctrl = &beep.Ctrl{Streamer: Stream(t, SampleRate)}
	p.volume = &effects.Volume{Streamer: p.ctrl, Base: 2}
	setLevel(p.volume, p.level)
	p.mixer.Add(p.volume)
	p.track = t
	p.logger.Debug("Music: playing %s track at %.0f%%", t, p.level*100)
}

func (p *Player) initLocked() bool {
	if p.failed {
		return false
	}
	if p.initialized {
		return true
	}
	if err := p.out.Init(SampleRate, SampleRate.N(100*time.Millisecond)); err != nil {
		p.failed = true
		p.logger.Warn("Audio unavailable, music disabled: %v", err)
		return false
	}
	p.out.Play(p.mixer)
	p.initialized = true
	return true
}

func (p *Player) pauseLocked() {
	if p.ctrl == nil {
		return
	}
	p.out.Lock()
	p.ctrl.Paused = true
	p.out.Unlock()
}

// SetVolume changes the level of the current track.
func (p *Player) SetVolume(level float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.level = clampLevel(level)
	if p.volume == nil {
		return
	}
	p.out.Lock()
	setLevel(p.volume, p.level)
	p.out.Unlock()
}

// Track returns the loaded track, which may be paused.
func (p *Player) Track() Track {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.track
}

// Playing reports whether a track is audible.
func (p *Player) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ctrl != nil && !p.ctrl.Paused && p.level > 0
}

// Available reports whether the audio device is usable.
func (p *Player) Available() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.failed
}

// Close stops playback and releases the device.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.initialized {
		return
	}
	p.out.Lock()
	p.mixer.Clear()
	p.out.Unlock()
	p.out.Close()
	p.ctrl = nil
	p.volume = nil
	p.track = TrackNone
	p.initialized = false
}

func clampLevel(v float64) float64 {
	if math.IsNaN(v) {
		return DefaultVolume
	}
	return math.Max(0, math.Min(1, v))
}

// setLevel maps a linear level onto the volume effect. Zero is silence.
func setLevel(v *effects.Volume, level float64) {
	if level <= 0 {
		v.Silent = true
		v.Volume = 0
		return
	}
	v.Silent = false
	v.Volume = math.Log2(level)
}
