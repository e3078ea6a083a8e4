package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the developer's config, env file and overrides out of a
// test and returns the override file path.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	t.Setenv("LS_SKY_ENV_FILE", filepath.Join(dir, "missing.env"))
	return filepath.Join(dir, "overrides.yaml")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := rootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestOverrideCommands(t *testing.T) {
	path := isolate(t)

	out, err := run(t, "override", "show", "--override-path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "mode     auto")
	assert.Contains(t, out, "volume   0.30")

	out, err = run(t, "override", "set", "--override-path", path,
		"--mode", "dusk", "--weather", "snow", "--music", "on", "--volume", "0.5")
	require.NoError(t, err)
	assert.Contains(t, out, "mode     dusk")
	assert.Contains(t, out, "weather  snow")
	assert.Contains(t, out, "music    on")

	// A second process sees the same file.
	out, err = run(t, "override", "show", "--override-path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "weather  snow")

	out, err = run(t, "override", "set", "--override-path", path, "--weather", "auto")
	require.NoError(t, err)
	assert.Contains(t, out, "weather  auto")
	assert.Contains(t, out, "mode     dusk")

	out, err = run(t, "override", "clear", "--override-path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "mode     auto")
	assert.Contains(t, out, "music    on", "clear keeps music preferences")
}

func TestOverrideSet_Invalid(t *testing.T) {
	path := isolate(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no flags", nil},
		{"bad mode", []string{"--mode", "midnight"}},
		{"unknown weather", []string{"--weather", "unknown"}},
		{"bad music", []string{"--music", "loud"}},
		{"volume range", []string{"--volume", "1.5"}},
		{"partial write", []string{"--mode", "noon", "--weather", "fog"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"override", "set", "--override-path", path}, tt.args...)
			_, err := run(t, args...)
			assert.Error(t, err)
		})
	}

	out, err := run(t, "override", "show", "--override-path", path)
	require.NoError(t, err)
	assert.Contains(t, out, "mode     auto", "a rejected set writes nothing")
}

func TestSnapshotCommand(t *testing.T) {
	path := isolate(t)
	t.Setenv("LS_SKY_FORECAST_URL", "https://forecast.test/v1/forecast")

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterRegexpResponder(http.MethodGet, regexp.MustCompile(`^https://forecast\.test/`),
		httpmock.NewStringResponder(http.StatusOK,
			`{"current":{"weather_code":61,"precipitation":0.4,"cloud_cover":100,"wind_speed_10m":3}}`))

	_, err := run(t, "override", "set", "--override-path", path, "--mode", "afternoon")
	require.NoError(t, err)

	out, err := run(t, "snapshot", "--json", "--override-path", path,
		"--latitude", "48.85", "--longitude", "2.35")
	require.NoError(t, err)

	var got struct {
		Mode       string `json:"mode"`
		Weather    string `json:"weather"`
		ManualMode bool   `json:"manual_mode"`
		Computed   struct {
			Condition string  `json:"condition"`
			Latitude  float64 `json:"latitude"`
		} `json:"computed"`
		Theme struct {
			GradientFrom string `json:"gradient_from"`
		} `json:"theme"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got), out)
	assert.Equal(t, "afternoon", got.Mode)
	assert.True(t, got.ManualMode)
	assert.Equal(t, "rain", got.Weather)
	assert.Equal(t, "rain", got.Computed.Condition)
	assert.Equal(t, 48.85, got.Computed.Latitude)
	assert.Equal(t, "#5aa0ff", got.Theme.GradientFrom)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestSnapshotCommand_Frame(t *testing.T) {
	path := isolate(t)
	t.Setenv("LS_SKY_FORECAST_URL", "https://forecast.test/v1/forecast")

	httpmock.Activate()
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterRegexpResponder(http.MethodGet, regexp.MustCompile(`^https://forecast\.test/`),
		httpmock.NewStringResponder(http.StatusInternalServerError, ""))

	out, err := run(t, "snapshot", "--frame", "--cols", "20", "--rows", "5",
		"--override-path", path, "--latitude", "0", "--longitude", "0")
	require.NoError(t, err, "a failed fetch still renders")
	assert.Contains(t, out, "Weather")
	assert.Contains(t, out, "Error")

	// Summary, a blank line, then the frame rows.
	assert.GreaterOrEqual(t, strings.Count(out, "\n"), 10)
}

func TestFrameSize(t *testing.T) {
	cols, rows := frameSize(&snapshotOptions{}, false)
	assert.Equal(t, defaultCols, cols)
	assert.Equal(t, defaultRows, rows)

	cols, rows = frameSize(&snapshotOptions{cols: 30, rows: 6}, false)
	assert.Equal(t, 30, cols)
	assert.Equal(t, 6, rows)
}

func TestParseFlags(t *testing.T) {
	mode, err := parseModeFlag(" Dusk ")
	require.NoError(t, err)
	assert.Equal(t, "dusk", string(mode))

	mode, err = parseModeFlag("auto")
	require.NoError(t, err)
	assert.Empty(t, mode)

	cond, err := parseWeatherFlag("blizzard")
	require.NoError(t, err)
	assert.Equal(t, "blizzard", string(cond))

	_, err = parseWeatherFlag("fog")
	assert.Error(t, err)
}
