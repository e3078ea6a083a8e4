// Package music plays the ambient background loop that matches the sky:
// a bright day pad, a slow night pad, or a storm drone with rain hiss.
// Tracks are synthesized, so there are no audio assets to ship.
package music

import (
	"math"
	"time"

	"github.com/gopxl/beep"

	"github.com/litescript/ls-sky/internal/sky"
)

// SampleRate is the output rate of every track.
const SampleRate = beep.SampleRate(44100)

// Track names a background loop.
type Track string

const (
	TrackNone  Track = ""
	TrackDay   Track = "day"
	TrackNight Track = "night"
	TrackStorm Track = "storm"
)

// Select picks the track for a mode and condition. Wet weather wins over
// the time of day.
func Select(mode sky.Mode, cond sky.Condition) Track {
	switch {
	case cond == sky.ConditionRain || cond == sky.ConditionStorm:
		return TrackStorm
	case mode == sky.ModeNight || mode == sky.ModeDawn || mode == sky.ModeDusk:
		return TrackNight
	default:
		return TrackDay
	}
}

type voice struct {
	freq float64
	amp  float64
}

type trackSpec struct {
	voices []voice
	// Period of the slow swell, which is also the loop length.
	period time.Duration
	noise  float64
}

var tracks = map[Track]trackSpec{
	// C major, open voicing.
	TrackDay: {
		voices: []voice{{261.63, 0.10}, {329.63, 0.07}, {392.00, 0.07}, {523.25, 0.03}},
		period: 8 * time.Second,
	},
	// A minor, low and slow.
	TrackNight: {
		voices: []voice{{110.00, 0.12}, {130.81, 0.08}, {164.81, 0.07}, {220.00, 0.03}},
		period: 12 * time.Second,
	},
	// Low drone under rain hiss.
	TrackStorm: {
		voices: []voice{{55.00, 0.12}, {82.41, 0.06}, {110.00, 0.04}},
		period: 10 * time.Second,
		noise:  0.05,
	},
}

// phrase is one loop of a track. It implements beep.StreamSeeker so it can
// be looped without end.
type phrase struct {
	spec   trackSpec
	sr     beep.SampleRate
	length int
	pos    int
	hiss   float64
}

func newPhrase(t Track, sr beep.SampleRate) *phrase {
	spec, ok := tracks[t]
	if !ok {
		spec = tracks[TrackDay]
	}
	return &phrase{spec: spec, sr: sr, length: sr.N(spec.period)}
}

func (p *phrase) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if p.pos >= p.length {
			return i, i > 0
		}
		v := p.sample(p.pos)
		samples[i][0] = v
		samples[i][1] = v
		p.pos++
	}
	return len(samples), true
}

func (p *phrase) sample(n int) float64 {
	t := float64(n) / float64(p.sr)
	cycle := float64(n) / float64(p.length)
	swell := 0.65 + 0.35*math.Sin(2*math.Pi*cycle)

	v := 0.0
	for i, vc := range p.spec.voices {
		// Slight per-voice detune keeps the pad from sounding static.
		detune := 1 + 0.0015*float64(i)*math.Sin(2*math.Pi*cycle*float64(i+1))
		v += vc.amp * math.Sin(2*math.Pi*vc.freq*detune*t)
	}
	v *= swell

	if p.spec.noise > 0 {
		// One-pole low pass over white noise.
		p.hiss += 0.15 * (whiteNoise(n) - p.hiss)
		v += p.spec.noise * p.hiss
	}
	return v
}

func (p *phrase) Err() error    { return nil }
func (p *phrase) Len() int      { return p.length }
func (p *phrase) Position() int { return p.pos }

func (p *phrase) Seek(pos int) error {
	p.pos = max(0, min(pos, p.length))
	return nil
}

// whiteNoise returns a deterministic value in [-1,1) for sample index n.
func whiteNoise(n int) float64 {
	x := uint32(n)*0x9E3779B1 + 0x7F4A7C15
	x ^= x >> 16
	x *= 0x85EBCA6B
	x ^= x >> 13
	x *= 0xC2B2AE35
	x ^= x >> 16
	return float64(x)/float64(1<<31) - 1
}

// Stream returns an endless loop of t.
func Stream(t Track, sr beep.SampleRate) beep.Streamer {
	return beep.Loop(-1, newPhrase(t, sr))
}
