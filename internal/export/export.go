// Package export renders the resolved sky as JSON or a text summary for
// headless use.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/compositor"
	"github.com/litescript/ls-sky/internal/music"
	"github.com/litescript/ls-sky/internal/override"
	"github.com/litescript/ls-sky/internal/sky"
	"github.com/litescript/ls-sky/internal/state"
)

// maxEvents bounds the events included in an export.
const maxEvents = 10

// SnapshotExport is the JSON-serializable view of what the sky shows.
type SnapshotExport struct {
	Timestamp time.Time `json:"timestamp"`

	Mode          string `json:"mode"`
	Weather       string `json:"weather"`
	ManualMode    bool   `json:"manual_mode"`
	ManualWeather bool   `json:"manual_weather"`

	Computed ComputedExport `json:"computed"`
	Theme    ThemeExport    `json:"theme"`
	Music    MusicExport    `json:"music"`

	// SunProgress is 0 at sunrise and 1 at sunset, absent when the sun
	// follows the mode instead.
	SunProgress  *float64   `json:"sun_progress,omitempty"`
	SunElevation *float64   `json:"sun_elevation_deg,omitempty"`
	Moon         MoonExport `json:"moon"`

	History []HistoryExport `json:"history,omitempty"`
	Events  []state.Event   `json:"events,omitempty"`
}

// MoonExport describes the moon at export time.
type MoonExport struct {
	Phase        float64 `json:"phase"`
	Illumination float64 `json:"illumination"`
}

// HistoryExport is one successful weather reading.
type HistoryExport struct {
	Timestamp   time.Time         `json:"timestamp"`
	Condition   string            `json:"condition"`
	Observation ObservationExport `json:"observation"`
}

// ComputedExport is the automatic state before overrides.
type ComputedExport struct {
	Mode        string             `json:"mode"`
	Condition   string             `json:"condition"`
	Latitude    *float64           `json:"latitude,omitempty"`
	Longitude   *float64           `json:"longitude,omitempty"`
	Source      string             `json:"source,omitempty"`
	Observation *ObservationExport `json:"observation,omitempty"`
	FetchedAt   *time.Time         `json:"fetched_at,omitempty"`
	Error       string             `json:"error,omitempty"`
}

// ObservationExport omits fields the forecast did not report.
type ObservationExport struct {
	Code          int      `json:"code"`
	WindSpeed     *float64 `json:"wind_speed_ms,omitempty"`
	Precipitation *float64 `json:"precipitation_mm,omitempty"`
	CloudCover    *float64 `json:"cloud_cover_pct,omitempty"`
}

// ThemeExport is a JSON-friendly sky.Theme.
type ThemeExport struct {
	GradientFrom    string  `json:"gradient_from"`
	GradientTo      string  `json:"gradient_to"`
	StarIntensity   float64 `json:"star_intensity"`
	OverlayDarkness float64 `json:"overlay_darkness"`
	ShowSun         bool    `json:"show_sun"`
	ShowMoon        bool    `json:"show_moon"`
}

// MusicExport reports the background music preferences.
type MusicExport struct {
	Enabled bool    `json:"enabled"`
	Volume  float64 `json:"volume"`
	Track   string  `json:"track"`
}

// ExportSnapshot combines computed state, overrides and frame parameters.
func ExportSnapshot(snap state.Snapshot, ov override.Override, params compositor.Params, now time.Time) *SnapshotExport {
	res := params.Resolved
	export := &SnapshotExport{
		Timestamp:     now,
		Mode:          string(res.Mode),
		Weather:       string(res.Weather),
		ManualMode:    res.ManualMode,
		ManualWeather: res.ManualWeather,
		Computed: ComputedExport{
			Mode:      string(snap.Mode),
			Condition: string(snap.Condition),
		},
		Theme: themeExport(params.Theme),
		Music: MusicExport{
			Enabled: ov.MusicEnabled,
			Volume:  ov.Volume,
			Track:   string(music.Select(res.Mode, res.Weather)),
		},
		SunProgress:  params.SunProgress,
		SunElevation: params.SunElevation,
		Moon:         moonExport(now),
	}

	for _, h := range snap.History {
		export.History = append(export.History, HistoryExport{
			Timestamp:   h.Timestamp,
			Condition:   string(h.Condition),
			Observation: observationExport(h.Observation),
		})
	}
	events := snap.Events
	if len(events) > maxEvents {
		events = events[len(events)-maxEvents:]
	}
	export.Events = append(export.Events, events...)

	c := &export.Computed
	if snap.Position != nil {
		c.Latitude = finite(snap.Position.Latitude)
		c.Longitude = finite(snap.Position.Longitude)
		c.Source = snap.Position.Source
	}
	if !snap.LastFetch.IsZero() {
		fetched := snap.LastFetch
		c.FetchedAt = &fetched
		obs := observationExport(snap.Observation)
		c.Observation = &obs
	}
	switch {
	case snap.LastError != nil:
		c.Error = snap.LastError.Error()
	case snap.LocateError != nil:
		c.Error = snap.LocateError.Error()
	}
	return export
}

func observationExport(o sky.Observation) ObservationExport {
	return ObservationExport{
		Code:          o.Code,
		WindSpeed:     finite(o.WindSpeed),
		Precipitation: finite(o.Precipitation),
		CloudCover:    finite(o.CloudCover),
	}
}

func moonExport(t time.Time) MoonExport {
	phase := astro.MoonPhase(t)
	return MoonExport{Phase: phase, Illumination: astro.MoonIllumination(phase)}
}

func themeExport(t sky.Theme) ThemeExport {
	return ThemeExport{
		GradientFrom:    t.GradientFrom,
		GradientTo:      t.GradientTo,
		StarIntensity:   t.StarIntensity,
		OverlayDarkness: t.OverlayDarkness,
		ShowSun:         t.ShowSun,
		ShowMoon:        t.ShowMoon,
	}
}

// finite returns nil for NaN and infinities, which JSON cannot encode.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// WriteJSON writes the snapshot as JSON to the given writer.
func (s *SnapshotExport) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// WriteSummary writes a short text report.
func (s *SnapshotExport) WriteSummary(w io.Writer) {
	fmt.Fprintf(w, "Sky @ %s\n", s.Timestamp.Format(time.RFC3339))
	fmt.Fprintln(w, strings.Repeat("─", 48))

	fmt.Fprintf(w, "%-10s %s\n", "Mode", pinned(s.Mode, s.ManualMode, s.Computed.Mode))
	fmt.Fprintf(w, "%-10s %s\n", "Weather", pinned(s.Weather, s.ManualWeather, s.Computed.Condition))
	fmt.Fprintf(w, "%-10s %s → %s\n", "Gradient", s.Theme.GradientFrom, s.Theme.GradientTo)
	if sun := sunSummary(s.SunProgress, s.SunElevation); sun != "" {
		fmt.Fprintf(w, "%-10s %s\n", "Sun", sun)
	}
	fmt.Fprintf(w, "%-10s %.0f%% lit\n", "Moon", s.Moon.Illumination*100)

	c := s.Computed
	if c.Latitude != nil && c.Longitude != nil {
		fmt.Fprintf(w, "%-10s %.4f, %.4f (%s)\n", "Location", *c.Latitude, *c.Longitude, c.Source)
	}
	if o := c.Observation; o != nil {
		var parts []string
		parts = append(parts, fmt.Sprintf("code %d", o.Code))
		if o.WindSpeed != nil {
			parts = append(parts, fmt.Sprintf("wind %.1f m/s", *o.WindSpeed))
		}
		if o.Precipitation != nil {
			parts = append(parts, fmt.Sprintf("precip %.1f mm", *o.Precipitation))
		}
		if o.CloudCover != nil {
			parts = append(parts, fmt.Sprintf("cloud %.0f%%", *o.CloudCover))
		}
		fmt.Fprintf(w, "%-10s %s\n", "Observed", strings.Join(parts, ", "))
	}
	if c.Error != "" {
		fmt.Fprintf(w, "%-10s %s\n", "Error", c.Error)
	}

	playing := "off"
	if s.Music.Enabled {
		playing = fmt.Sprintf("%s at %.0f%%", s.Music.Track, s.Music.Volume*100)
	}
	fmt.Fprintf(w, "%-10s %s\n", "Music", playing)

	if len(s.Events) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recent events")
		for _, e := range s.Events {
			fmt.Fprintf(w, "  %s  %-16s %s\n", e.Timestamp.Format("15:04:05"), e.Type, eventDetail(e))
		}
	}
}

func sunSummary(progress, elevation *float64) string {
	var parts []string
	if progress != nil {
		parts = append(parts, fmt.Sprintf("%.0f%% of daylight", *progress*100))
	}
	if elevation != nil {
		if *elevation >= 0 {
			parts = append(parts, fmt.Sprintf("%.1f° up", *elevation))
		} else {
			parts = append(parts, fmt.Sprintf("%.1f° below the horizon", -*elevation))
		}
	}
	return strings.Join(parts, ", ")
}

func eventDetail(e state.Event) string {
	switch {
	case e.From != "" && e.To != "":
		return e.From + " → " + e.To
	case e.To != "":
		return e.To
	default:
		return e.Detail
	}
}

func pinned(value string, manual bool, computed string) string {
	if !manual {
		return value
	}
	if computed == "" {
		computed = "unknown"
	}
	return fmt.Sprintf("%s (pinned, computed %s)", value, computed)
}
