// Package sky defines the time-of-day modes, weather conditions and theme
// table that drive the ambient sky layer.
package sky

import "time"

// Mode is a discrete time-of-day bucket.
type Mode string

const (
	ModeNight     Mode = "night"
	ModeDawn      Mode = "dawn"
	ModeMorning   Mode = "morning"
	ModeNoon      Mode = "noon"
	ModeAfternoon Mode = "afternoon"
	ModeDusk      Mode = "dusk"
)

// Modes lists every mode in daily order starting at dawn.
var Modes = []Mode{ModeDawn, ModeMorning, ModeNoon, ModeAfternoon, ModeDusk, ModeNight}

// ModeForHour maps a local hour to its mode. Boundaries are half-open:
// [5,7) dawn, [7,11) morning, [11,14) noon, [14,17) afternoon,
// [17,20) dusk, everything else night.
func ModeForHour(h int) Mode {
	switch {
	case h >= 5 && h < 7:
		return ModeDawn
	case h >= 7 && h < 11:
		return ModeMorning
	case h >= 11 && h < 14:
		return ModeNoon
	case h >= 14 && h < 17:
		return ModeAfternoon
	case h >= 17 && h < 20:
		return ModeDusk
	default:
		return ModeNight
	}
}

// ModeAt returns the mode for the wall-clock hour of t in t's location.
func ModeAt(t time.Time) Mode {
	return ModeForHour(t.Hour())
}

// ParseMode parses a mode name. The empty string and unknown names
// report ok=false, which callers treat as "automatic".
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeNight, ModeDawn, ModeMorning, ModeNoon, ModeAfternoon, ModeDusk:
		return m, true
	default:
		return "", false
	}
}

// IsDaytime reports whether the sun is above the horizon in this mode.
func (m Mode) IsDaytime() bool {
	switch m {
	case ModeDawn, ModeMorning, ModeNoon, ModeAfternoon, ModeDusk:
		return true
	default:
		return false
	}
}

// IsGoldenHour reports whether the mode is dawn or dusk.
func (m Mode) IsGoldenHour() bool {
	return m == ModeDawn || m == ModeDusk
}

// Next returns the mode that follows m in the manual cycle.
// The cycle wraps from night back to dawn.
func (m Mode) Next() Mode {
	for i, mode := range Modes {
		if mode == m {
			return Modes[(i+1)%len(Modes)]
		}
	}
	return Modes[0]
}

func (m Mode) String() string {
	return string(m)
}
