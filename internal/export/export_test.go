package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/compositor"
	"github.com/litescript/ls-sky/internal/geo"
	"github.com/litescript/ls-sky/internal/override"
	"github.com/litescript/ls-sky/internal/resolver"
	"github.com/litescript/ls-sky/internal/sky"
	"github.com/litescript/ls-sky/internal/state"
)

var now = time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC)

func rainySnapshot() state.Snapshot {
	return state.Snapshot{
		Mode:      sky.ModeAfternoon,
		Condition: sky.ConditionRain,
		Position:  &geo.Position{Latitude: 48.85, Longitude: 2.35, Source: "ip"},
		Observation: sky.Observation{
			Code: 61, WindSpeed: 3, Precipitation: math.NaN(), CloudCover: 90,
		},
		LastFetch: now.Add(-time.Minute),
	}
}

func TestExportSnapshot(t *testing.T) {
	snap := rainySnapshot()
	ov := override.Override{Mode: sky.ModeNight, MusicEnabled: true, Volume: 0.5}
	res := resolver.Effective(snap, ov)
	progress := 0.25
	params := compositor.ParamsFor(res, nil, now)
	params.SunProgress = &progress

	export := ExportSnapshot(snap, ov, params, now)

	if export.Mode != "night" || !export.ManualMode {
		t.Errorf("Mode = %q manual=%v, want pinned night", export.Mode, export.ManualMode)
	}
	if export.Weather != "rain" || export.ManualWeather {
		t.Errorf("Weather = %q manual=%v, want computed rain", export.Weather, export.ManualWeather)
	}
	if export.Computed.Mode != "afternoon" {
		t.Errorf("Computed.Mode = %q, want afternoon", export.Computed.Mode)
	}
	if export.Theme.GradientFrom != sky.ThemeFor(sky.ModeNight).GradientFrom {
		t.Errorf("Theme.GradientFrom = %q", export.Theme.GradientFrom)
	}
	if export.Music.Track != "storm" {
		t.Errorf("Music.Track = %q, want storm", export.Music.Track)
	}

	obs := export.Computed.Observation
	if obs == nil {
		t.Fatal("Observation missing")
	}
	if obs.Precipitation != nil {
		t.Errorf("Precipitation = %v, want omitted", *obs.Precipitation)
	}
	if obs.WindSpeed == nil || *obs.WindSpeed != 3 {
		t.Errorf("WindSpeed = %v, want 3", obs.WindSpeed)
	}
}

func TestExportSnapshot_NoData(t *testing.T) {
	snap := state.Snapshot{LocateError: errors.New("position unavailable")}
	params := compositor.ParamsFor(resolver.Effective(snap, override.Default()), nil, now)

	export := ExportSnapshot(snap, override.Default(), params, now)
	if export.Computed.Observation != nil || export.Computed.FetchedAt != nil {
		t.Error("no fetch should export no observation")
	}
	if export.Computed.Error != "position unavailable" {
		t.Errorf("Error = %q", export.Computed.Error)
	}
	if export.Weather != "unknown" {
		t.Errorf("Weather = %q, want unknown", export.Weather)
	}
}

func TestExportSnapshot_SkyAndHistory(t *testing.T) {
	midday := time.Date(2024, 6, 21, 11, 50, 0, 0, time.UTC)
	snap := rainySnapshot()
	snap.History = []state.HistoryEntry{{
		Timestamp:   midday.Add(-10 * time.Minute),
		Condition:   sky.ConditionRain,
		Observation: snap.Observation,
	}}
	base := midday.Add(-time.Hour)
	for i := 0; i < 12; i++ {
		snap.Events = append(snap.Events, state.Event{
			Type:      state.EventModeChange,
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			From:      "afternoon",
			To:        "dusk",
		})
	}

	sun := astro.NewSunPath(astro.Observer{LatDeg: 48.8566, LonDeg: 2.3522})
	ov := override.Default()
	params := compositor.ParamsFor(resolver.Effective(snap, ov), sun, midday)
	export := ExportSnapshot(snap, ov, params, midday)

	if export.SunElevation == nil || *export.SunElevation < 50 {
		t.Errorf("SunElevation = %v, want above 50", export.SunElevation)
	}
	if export.Moon.Illumination < 0 || export.Moon.Illumination > 1 {
		t.Errorf("Moon.Illumination = %v, want in [0,1]", export.Moon.Illumination)
	}
	if len(export.History) != 1 || export.History[0].Observation.Precipitation != nil {
		t.Errorf("History = %+v, want one entry without precipitation", export.History)
	}
	if len(export.Events) != maxEvents {
		t.Fatalf("events = %d, want %d", len(export.Events), maxEvents)
	}
	if !export.Events[maxEvents-1].Timestamp.Equal(base.Add(11 * time.Minute)) {
		t.Error("export should keep the newest events")
	}

	var buf bytes.Buffer
	export.WriteSummary(&buf)
	out := buf.String()
	for _, want := range []string{"of daylight", "° up", "Moon", "Recent events", "afternoon → dusk"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestSunSummary(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	tests := []struct {
		name                string
		progress, elevation *float64
		want                string
	}{
		{"unknown", nil, nil, ""},
		{"daylight", f(0.5), f(61.2), "50% of daylight, 61.2° up"},
		{"pinned mode by day", nil, f(12), "12.0° up"},
		{"night", nil, f(-20.5), "20.5° below the horizon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sunSummary(tt.progress, tt.elevation); got != tt.want {
				t.Errorf("sunSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMoonExport(t *testing.T) {
	full := moonExport(time.Date(2000, 1, 21, 4, 40, 0, 0, time.UTC))
	if full.Illumination < 0.99 {
		t.Errorf("full moon illumination = %v, want about 1", full.Illumination)
	}
	dark := moonExport(time.Date(2000, 1, 6, 18, 14, 0, 0, time.UTC))
	if dark.Illumination > 0.01 {
		t.Errorf("new moon illumination = %v, want about 0", dark.Illumination)
	}
}

func TestWriteJSON(t *testing.T) {
	snap := rainySnapshot()
	ov := override.Default()
	params := compositor.ParamsFor(resolver.Effective(snap, ov), nil, now)

	var buf bytes.Buffer
	if err := ExportSnapshot(snap, ov, params, now).WriteJSON(&buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["mode"] != "afternoon" {
		t.Errorf("mode = %v", decoded["mode"])
	}
	if _, ok := decoded["sun_progress"]; ok {
		t.Error("sun_progress should be omitted when nil")
	}
	computed := decoded["computed"].(map[string]any)
	observation := computed["observation"].(map[string]any)
	if _, ok := observation["precipitation_mm"]; ok {
		t.Error("NaN precipitation should be omitted")
	}
}

func TestWriteSummary(t *testing.T) {
	snap := rainySnapshot()
	ov := override.Override{Weather: sky.ConditionSnow, Volume: 0.3}
	params := compositor.ParamsFor(resolver.Effective(snap, ov), nil, now)

	var buf bytes.Buffer
	ExportSnapshot(snap, ov, params, now).WriteSummary(&buf)
	out := buf.String()

	for _, want := range []string{
		"Mode       afternoon\n",
		"snow (pinned, computed rain)",
		"48.8500, 2.3500 (ip)",
		"code 61, wind 3.0 m/s, cloud 90%",
		"Music      off",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "precip") {
		t.Error("summary should skip missing precipitation")
	}
}
