package forecast

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/litescript/ls-sky/internal/sky"
)

// currentBlock holds the "current" object. Older API versions used
// unseparated names, so both spellings are read.
type currentBlock struct {
	WeatherCode     *float64 `json:"weather_code"`
	LegacyCode      *float64 `json:"weathercode"`
	WindSpeed       *float64 `json:"wind_speed_10m"`
	LegacyWindSpeed *float64 `json:"windspeed_10m"`
	Precipitation   *float64 `json:"precipitation"`
	CloudCover      *float64 `json:"cloud_cover"`
	LegacyCloud     *float64 `json:"cloudcover"`
}

type response struct {
	Current *currentBlock `json:"current"`
	Error   bool          `json:"error"`
	Reason  string        `json:"reason"`
}

// Parse decodes an Open-Meteo response body into an observation. Absent
// fields stay missing; an absent "current" object yields an observation
// with every field missing.
func Parse(data []byte) (sky.Observation, error) {
	var r response
	if err := json.Unmarshal(data, &r); err != nil {
		return sky.NewObservation(), fmt.Errorf("decode json: %w", err)
	}
	if r.Error {
		if r.Reason == "" {
			r.Reason = "unspecified"
		}
		return sky.NewObservation(), errors.New("api error: " + r.Reason)
	}

	obs := sky.NewObservation()
	if r.Current == nil {
		return obs, nil
	}
	cur := r.Current

	if v := first(cur.WeatherCode, cur.LegacyCode); v != nil && finite(*v) {
		obs.Code = int(*v)
	}
	if v := first(cur.WindSpeed, cur.LegacyWindSpeed); v != nil {
		obs.WindSpeed = *v
	}
	if cur.Precipitation != nil {
		obs.Precipitation = *cur.Precipitation
	}
	if v := first(cur.CloudCover, cur.LegacyCloud); v != nil {
		obs.CloudCover = *v
	}
	return obs, nil
}

func first(vals ...*float64) *float64 {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
