// Package ui provides the terminal user interface using Bubble Tea.
package ui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/canvas"
	"github.com/litescript/ls-sky/internal/compositor"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/metrics"
	"github.com/litescript/ls-sky/internal/music"
	"github.com/litescript/ls-sky/internal/override"
	"github.com/litescript/ls-sky/internal/resolver"
	"github.com/litescript/ls-sky/internal/starfield"
	"github.com/litescript/ls-sky/internal/state"
	"github.com/litescript/ls-sky/internal/version"
)

const (
	footerLines  = 2
	scrollStep   = 48.0
	volumeStep   = 0.1
	refreshLimit = 15 * time.Second

	refreshingStatus = "Refreshing weather..."
	unknownWeather   = "weather unknown"
)

// Msg types for Bubble Tea
type (
	// TickMsg triggers periodic state refreshes.
	TickMsg time.Time

	// AnimTickMsg repaints the weather overlay and the spinner.
	AnimTickMsg time.Time

	// DataUpdateMsg signals the resolver produced new state.
	DataUpdateMsg struct {
		Snapshot state.Snapshot
	}

	// OverrideMsg signals the manual overrides changed, possibly from
	// another process.
	OverrideMsg struct {
		Override override.Override
	}

	// ErrorMsg signals a failed override write.
	ErrorMsg struct {
		Error error
	}
)

// Deps are the collaborators the model drives. Music, Metrics and SunPath
// may be nil.
type Deps struct {
	State     *state.Manager
	Resolver  *resolver.Resolver
	Overrides *override.State
	Layer     *compositor.Layer
	Host      *TermHost

	Music   *music.Player
	Metrics *metrics.Metrics
	SunPath *astro.SunPath
	Logger  *logging.Logger

	MinFPS        float64
	FrameInterval time.Duration
	Now           func() time.Time
}

type musicState struct {
	enabled bool
	volume  float64
	track   music.Track
}

// Model is the root Bubble Tea model.
type Model struct {
	deps Deps

	width  int
	height int
	ready  bool

	snapshot  state.Snapshot
	ov        override.Override
	resolved  resolver.Resolved
	music     musicState
	statusMsg string
	animTick  int

	startup tea.Cmd
}

// New creates the root model. The layer must already be mounted on
// deps.Host.
func New(deps Deps) Model {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.FrameInterval <= 0 {
		deps.FrameInterval = 25 * time.Millisecond
	}
	if deps.Logger == nil {
		deps.Logger = logging.Discard()
	}
	m := Model{deps: deps}
	if deps.State != nil {
		m.snapshot = deps.State.Snapshot()
	}
	if deps.Overrides != nil {
		m.ov = deps.Overrides.Get()
	}
	m.startup = tea.Batch(m.refresh()...)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tickCmd(), animTickCmd(), m.startup, m.frameCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			m.shutdown()
			return m, tea.Quit
		}
		cmds = append(cmds, m.handleKey(msg)...)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.deps.Host.Resize(msg.Width, max(1, msg.Height-footerLines))
		cmds = append(cmds, m.refresh()...)

	case tea.MouseMsg:
		switch {
		case msg.Button == tea.MouseButtonWheelUp:
			m.deps.Host.scrollBy(-scrollStep)
		case msg.Button == tea.MouseButtonWheelDown:
			m.deps.Host.scrollBy(scrollStep)
		case msg.Action == tea.MouseActionMotion:
			m.deps.Host.pointerAt(msg.X, msg.Y)
		}

	case tea.FocusMsg:
		m.deps.Host.setVisible(true)

	case tea.BlurMsg:
		m.deps.Host.setVisible(false)

	case frameMsg:
		m.deps.Host.fire(msg.id, msg.at)

	case TickMsg:
		cmds = append(cmds, tickCmd())
		if m.deps.State != nil {
			m.snapshot = m.deps.State.Snapshot()
		}
		// The sun keeps moving between mode changes.
		cmds = append(cmds, m.refresh()...)

	case AnimTickMsg:
		cmds = append(cmds, animTickCmd())
		m.animTick++

	case DataUpdateMsg:
		m.snapshot = msg.Snapshot
		if m.statusMsg == refreshingStatus {
			m.statusMsg = ""
		}
		if err := msg.Snapshot.LastError; err != nil {
			m.deps.Logger.Debug("Weather unavailable: %v", err)
		}
		cmds = append(cmds, m.refresh()...)

	case OverrideMsg:
		m.ov = msg.Override
		cmds = append(cmds, m.refresh()...)

	case ErrorMsg:
		m.statusMsg = "Error: " + msg.Error.Error()
		m.deps.Logger.Warn("Override update failed: %v", msg.Error)
	}

	// Frame requests made while handling msg become ticks.
	cmds = append(cmds, m.frameCmd())
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) []tea.Cmd {
	ov := m.deps.Overrides
	if ov == nil {
		return nil
	}

	var err error
	switch msg.String() {
	case "m":
		err = ov.SetMode(m.resolved.Mode.Next())
	case "w":
		err = ov.SetWeather(m.resolved.Weather.Next())
	case "a":
		err = ov.Clear()
	case "p":
		err = ov.SetMusicEnabled(!m.ov.MusicEnabled)
	case "+", "=":
		err = ov.SetVolume(m.ov.Volume + volumeStep)
	case "-", "_":
		err = ov.SetVolume(m.ov.Volume - volumeStep)
	case "r":
		m.statusMsg = refreshingStatus
		return []tea.Cmd{m.refreshWeatherCmd()}
	default:
		return nil
	}
	m.statusMsg = ""
	m.ov = ov.Get()
	cmds := m.refresh()
	if err != nil {
		cmds = append(cmds, SendError(err))
	}
	return cmds
}

// refresh recomputes what the sky shows and pushes it to the layer and the
// music player.
func (m *Model) refresh() []tea.Cmd {
	res := resolver.Effective(m.snapshot, m.ov)

	if m.deps.Layer != nil {
		p := compositor.ParamsFor(res, m.sunPath(), m.deps.Now())
		p.AvoidRects = m.heroRects()
		p.MinFPS = m.deps.MinFPS
		m.deps.Layer.Update(p)
	}

	if res != m.resolved && m.deps.Metrics != nil {
		m.deps.Metrics.SetResolved(res.Mode, res.Weather)
	}
	m.resolved = res

	return []tea.Cmd{m.musicCmd()}
}

// sunPath prefers the configured location, then the resolver's fix.
func (m *Model) sunPath() *astro.SunPath {
	if m.deps.SunPath != nil {
		return m.deps.SunPath
	}
	if pos := m.snapshot.Position; pos != nil && pos.Valid() {
		return astro.NewSunPath(astro.Observer{LatDeg: pos.Latitude, LonDeg: pos.Longitude})
	}
	return nil
}

// musicCmd applies music settings off the Update goroutine, and only when
// they changed. Opening the audio device can block.
func (m *Model) musicCmd() tea.Cmd {
	if m.deps.Music == nil {
		return nil
	}
	want := musicState{
		enabled: m.ov.MusicEnabled,
		volume:  m.ov.Volume,
		track:   music.Select(m.resolved.Mode, m.resolved.Weather),
	}
	if want == m.music {
		return nil
	}
	m.music = want
	player := m.deps.Music
	return func() tea.Msg {
		player.Apply(want.enabled, want.volume, want.track)
		return nil
	}
}

func (m Model) refreshWeatherCmd() tea.Cmd {
	r, mgr := m.deps.Resolver, m.deps.State
	if r == nil || mgr == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), refreshLimit)
		defer cancel()
		// A failure is recorded in the snapshot and shown as unknown weather.
		_ = r.RefreshWeather(ctx)
		return DataUpdateMsg{Snapshot: mgr.Snapshot()}
	}
}

// frameCmd turns a pending frame request into a tick.
func (m Model) frameCmd() tea.Cmd {
	id, ok := m.deps.Host.takeRequest()
	if !ok {
		return nil
	}
	return tea.Tick(m.deps.FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg{id: id, at: t}
	})
}

func (m *Model) shutdown() {
	if m.deps.Layer != nil {
		m.deps.Layer.Unmount()
	}
	if m.deps.Music != nil {
		m.deps.Music.Close()
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return m.renderSky() + "\n" + m.renderFooter()
}

const (
	heroTitle   = "l s · s k y"
	heroTagline = "the sky outside, in your terminal"
)

// heroLayout places the banner a third of the way down, centered.
func (m Model) heroLayout() (row int, lines []string) {
	rows := m.height - footerLines
	if m.width <= 0 || rows < 4 {
		return 0, nil
	}
	return rows / 3, []string{heroTitle, heroTagline}
}

// heroRects is the banner area in logical pixels, padded by one cell, so
// stars and meteors stay clear of the text.
func (m Model) heroRects() []starfield.Rect {
	row, lines := m.heroLayout()
	if len(lines) == 0 {
		return nil
	}
	widest := 0
	for _, l := range lines {
		widest = max(widest, len([]rune(l)))
	}
	col := (m.width - widest) / 2
	return []starfield.Rect{{
		X: float64(col-1) * canvas.CellWidth,
		Y: float64(row-1) * canvas.CellHeight,
		W: float64(widest+2) * canvas.CellWidth,
		H: float64(len(lines)+2) * canvas.CellHeight,
	}}
}

func (m Model) renderSky() string {
	if m.deps.Layer == nil {
		return ""
	}
	g := m.deps.Layer.Render(m.deps.Now().Sub(m.deps.Host.start))

	row, lines := m.heroLayout()
	for i, line := range lines {
		runes := []rune(line)
		col := (m.width - len(runes)) / 2
		for j, r := range runes {
			if r == ' ' {
				continue
			}
			x := (float64(col+j) + 0.5) * canvas.CellWidth
			y := (float64(row+i) + 0.5) * canvas.CellHeight
			c := canvas.White
			if i > 0 {
				c = canvas.Hex(gradientColor(j, len(runes)))
			}
			g.Glyph(x, y, r, c, 1)
		}
	}
	return canvas.Render(g)
}

// gradientColor returns a hex color along the tagline: pale blue to lilac.
func gradientColor(col, width int) string {
	t := 0.0
	if width > 1 {
		t = float64(col) / float64(width-1)
	}
	from, to := canvas.Hex("#BCDFFF"), canvas.Hex("#C8B6F0")
	return canvas.Mix(from, to, t).Clamped().Hex()
}

func (m Model) renderFooter() string {
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("60"))
	accentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#7B2CBF"))
	pinnedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F5A623")).Bold(true)

	// Animated spinner frames
	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	spinner := spinnerFrames[m.animTick%len(spinnerFrames)]

	label := func(v string, pinned bool) string {
		if pinned {
			return pinnedStyle.Render(v + "*")
		}
		return accentStyle.Render(v)
	}
	parts := []string{
		accentStyle.Render(spinner) + " " +
			label(string(m.resolved.Mode), m.resolved.ManualMode) + dimStyle.Render(" · ") +
			label(string(m.resolved.Weather), m.resolved.ManualWeather),
	}

	if obs := observationSummary(m.snapshot); obs != "" {
		parts = append(parts, dimStyle.Render(obs))
	}

	// Location and weather failures degrade to unknown weather.
	switch {
	case m.snapshot.LastError != nil:
		parts = append(parts, dimStyle.Render(unknownWeather))
	case !m.snapshot.LastFetch.IsZero():
		ago := m.deps.Now().Sub(m.snapshot.LastFetch).Round(time.Second)
		parts = append(parts, dimStyle.Render(fmt.Sprintf("updated %s ago", ago)))
	case m.snapshot.LocateError != nil:
		parts = append(parts, dimStyle.Render(unknownWeather))
	default:
		parts = append(parts, m.renderShimmerText("Waiting for weather..."))
	}

	parts = append(parts, dimStyle.Render(m.starfieldStatus()))
	parts = append(parts, dimStyle.Render(m.musicStatus()))

	sep := "  " + dimStyle.Render("|") + "  "
	line := "  " + strings.Join(parts, sep)

	help := "m: mode | w: weather | a: auto | p: music | +/-: volume | r: refresh | q: quit"
	if m.statusMsg != "" {
		help = m.statusMsg
	}
	second := "  " + dimStyle.Render(help) + dimStyle.Render(fmt.Sprintf("  v%s", version.Version))

	return line + "\n" + second
}

func observationSummary(s state.Snapshot) string {
	if s.LastFetch.IsZero() {
		return ""
	}
	obs := s.Observation
	var b []string
	if !math.IsNaN(obs.WindSpeed) {
		b = append(b, fmt.Sprintf("wind %.1fm/s", obs.WindSpeed))
	}
	if !math.IsNaN(obs.Precipitation) {
		b = append(b, fmt.Sprintf("precip %.1fmm", obs.Precipitation))
	}
	if !math.IsNaN(obs.CloudCover) {
		b = append(b, fmt.Sprintf("cloud %.0f%%", obs.CloudCover))
	}
	return strings.Join(b, " ")
}

func (m Model) starfieldStatus() string {
	if m.deps.Layer == nil || !m.deps.Layer.Animated() {
		return "still"
	}
	sim := m.deps.Layer.Simulator()
	switch {
	case sim.Throttled():
		return fmt.Sprintf("throttled at %.0f fps", sim.FPS())
	case sim.Paused():
		return "paused"
	case sim.FPS() > 0:
		return fmt.Sprintf("%.0f fps", sim.FPS())
	default:
		return "starting"
	}
}

func (m Model) musicStatus() string {
	switch {
	case !m.ov.MusicEnabled:
		return "♪ off"
	case m.deps.Music != nil && !m.deps.Music.Available():
		return "♪ no audio"
	default:
		return fmt.Sprintf("♪ %s %d%%", music.Select(m.resolved.Mode, m.resolved.Weather), int(math.Round(m.ov.Volume*100)))
	}
}

// Resolved returns what the sky currently shows.
func (m Model) Resolved() resolver.Resolved {
	return m.resolved
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func animTickCmd() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return AnimTickMsg(t)
	})
}

// SendError creates a command that reports a failed override write.
func SendError(err error) tea.Cmd {
	return func() tea.Msg {
		return ErrorMsg{Error: err}
	}
}

// renderShimmerText renders text with a subtle moving shine effect.
func (m Model) renderShimmerText(text string) string {
	runes := []rune(text)
	textLen := len(runes)
	if textLen == 0 {
		return ""
	}

	pos := m.animTick % (textLen + 8)

	var result strings.Builder
	for i, r := range runes {
		dist := i - pos + 4
		if dist < 0 {
			dist = -dist
		}

		var r8, g8, b8 int
		switch {
		case dist <= 1:
			r8, g8, b8 = 180, 200, 235
		case dist <= 3:
			r8, g8, b8 = 140, 160, 200
		case dist <= 5:
			r8, g8, b8 = 110, 125, 165
		default:
			r8, g8, b8 = 80, 90, 130
		}

		hexColor := fmt.Sprintf("#%02X%02X%02X", r8, g8, b8)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(hexColor))
		result.WriteString(style.Render(string(r)))
	}

	return result.String()
}
