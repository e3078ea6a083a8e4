package sky

import "math"

// Condition is a discrete sky/precipitation classification.
type Condition string

const (
	ConditionSunny    Condition = "sunny"
	ConditionCloudy   Condition = "cloudy"
	ConditionOvercast Condition = "overcast"
	ConditionRain     Condition = "rain"
	ConditionSnow     Condition = "snow"
	ConditionHail     Condition = "hail"
	ConditionWindy    Condition = "windy"
	ConditionStorm    Condition = "storm"
	ConditionBlizzard Condition = "blizzard"
	ConditionUnknown  Condition = "unknown"
)

// ManualConditions lists the conditions a user may pin, in menu order.
var ManualConditions = []Condition{
	ConditionSunny, ConditionCloudy, ConditionOvercast, ConditionRain, ConditionSnow,
	ConditionHail, ConditionWindy, ConditionStorm, ConditionBlizzard,
}

const (
	// WindyThreshold is the wind speed (m/s) at which an ambiguous sky becomes windy.
	WindyThreshold = 10.0

	overcastCloudCover = 85.0
	cloudyCloudCover   = 50.0
)

// Observation is a single current-conditions reading from a forecast source.
// Missing numeric fields are NaN; a missing weather code is negative.
type Observation struct {
	Code          int
	WindSpeed     float64 // m/s
	Precipitation float64 // mm
	CloudCover    float64 // %
}

// NewObservation returns an observation with every field missing.
func NewObservation() Observation {
	nan := math.NaN()
	return Observation{Code: -1, WindSpeed: nan, Precipitation: nan, CloudCover: nan}
}

// ConditionForCode maps a WMO weather code to a condition.
func ConditionForCode(code int) Condition {
	switch {
	case code == 0:
		return ConditionSunny
	case code == 1 || code == 2:
		return ConditionCloudy
	case code == 3 || code == 45 || code == 48:
		return ConditionOvercast
	case (code >= 51 && code <= 57) || (code >= 61 && code <= 65) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code == 66 || code == 67:
		// freezing rain / ice pellets
		return ConditionHail
	case code >= 95 && code <= 99:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}

// Classify derives a condition from an observation. The code mapping wins
// unless it is ambiguous (sunny, cloudy or unknown) and the wind is at least
// WindyThreshold. A still-unknown result falls back to cloud cover.
func Classify(obs Observation) Condition {
	c := ConditionUnknown
	if obs.Code >= 0 {
		c = ConditionForCode(obs.Code)
	}

	ambiguous := c == ConditionSunny || c == ConditionCloudy || c == ConditionUnknown
	if ambiguous && finite(obs.WindSpeed) && obs.WindSpeed >= WindyThreshold {
		c = ConditionWindy
	}

	if c == ConditionUnknown && finite(obs.CloudCover) {
		switch {
		case obs.CloudCover >= overcastCloudCover:
			c = ConditionOvercast
		case obs.CloudCover >= cloudyCloudCover:
			c = ConditionCloudy
		default:
			c = ConditionSunny
		}
	}
	return c
}

// ParseCondition parses a condition name. Unknown names and "unknown"
// itself report ok=false.
func ParseCondition(s string) (Condition, bool) {
	for _, c := range ManualConditions {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Obscures reports whether the condition hides the sun's halo.
func (c Condition) Obscures() bool {
	switch c {
	case ConditionOvercast, ConditionRain, ConditionSnow, ConditionHail, ConditionStorm, ConditionBlizzard:
		return true
	default:
		return false
	}
}

// Next returns the condition that follows c in the manual cycle.
func (c Condition) Next() Condition {
	for i, cond := range ManualConditions {
		if cond == c {
			return ManualConditions[(i+1)%len(ManualConditions)]
		}
	}
	return ManualConditions[0]
}

func (c Condition) String() string {
	return string(c)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
