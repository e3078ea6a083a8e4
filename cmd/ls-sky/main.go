// Command ls-sky paints the sky outside your window as an ambient terminal
// scene: time of day, local weather, stars, meteors and music.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/compositor"
	"github.com/litescript/ls-sky/internal/config"
	"github.com/litescript/ls-sky/internal/logging"
	"github.com/litescript/ls-sky/internal/metrics"
	"github.com/litescript/ls-sky/internal/music"
	"github.com/litescript/ls-sky/internal/override"
	"github.com/litescript/ls-sky/internal/resolver"
	"github.com/litescript/ls-sky/internal/starfield"
	"github.com/litescript/ls-sky/internal/state"
	"github.com/litescript/ls-sky/internal/ui"
	"github.com/litescript/ls-sky/internal/version"
)

func main() {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	if err := rootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every command needs after flags are parsed.
type app struct {
	v       *viper.Viper
	cfgFile string

	cfg     *config.Config
	logger  *logging.Logger
	logFile *os.File
}

func rootCommand() *cobra.Command {
	a := &app{v: config.NewViper()}

	root := &cobra.Command{
		Use:           "ls-sky",
		Short:         "Ambient sky for your terminal",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          a.runTUI,
	}

	if err := setupFlags(root, a); err != nil {
		// Flag names are static; a bind failure is a programming error.
		panic(err)
	}

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.initialize()
	}
	root.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		a.close()
	}

	root.AddCommand(snapshotCommand(a), overrideCommand(a))
	return root
}

// setupFlags defines the global flags and binds them over config values.
func setupFlags(root *cobra.Command, a *app) error {
	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "Config file (default: user config dir/ls-sky/config.yaml)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("log-file", "", "Write logs to this file (the TUI discards logs otherwise)")
	pf.Float64("latitude", 0, "Fixed latitude instead of an IP lookup")
	pf.Float64("longitude", 0, "Fixed longitude instead of an IP lookup")
	pf.Duration("weather-interval", 10*time.Minute, "Weather refresh interval (minimum 1m)")
	pf.Bool("reduced-motion", false, "Draw a still sky without animation")
	pf.Float64("min-fps", starfield.DefaultMinFPS, "Stop animating below this frame rate")
	pf.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9190)")
	pf.String("override-path", "", "Override file (default: user config dir/ls-sky/overrides.yaml)")

	bindings := map[string]string{
		config.KeyLogLevel:        "log-level",
		config.KeyLogFile:         "log-file",
		config.KeyLatitude:        "latitude",
		config.KeyLongitude:       "longitude",
		config.KeyWeatherInterval: "weather-interval",
		config.KeyReducedMotion:   "reduced-motion",
		config.KeyMinFPS:          "min-fps",
		config.KeyMetricsAddr:     "metrics-addr",
		config.KeyOverridePath:    "override-path",
	}
	for key, flag := range bindings {
		if err := a.v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// initialize loads configuration and sets up logging.
func (a *app) initialize() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logging.New(logging.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		a.logger.SetOutput(f)
	}
	if cfg.File != "" {
		a.logger.Debug("Loaded config from %s", cfg.File)
	}
	return nil
}

func (a *app) close() {
	if a.logger != nil {
		a.logger.Sync()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// overrideStore opens the configured override file.
func (a *app) overrideStore() (*override.FileStore, error) {
	path := a.cfg.OverridePath
	if path == "" {
		p, err := override.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return override.NewFileStore(path), nil
}

// sunPath follows the configured location. Without one, the UI derives it
// from the resolver's fix.
func (a *app) sunPath() *astro.SunPath {
	if !a.cfg.HasLocation {
		return nil
	}
	return astro.NewSunPath(astro.Observer{LatDeg: a.cfg.Latitude, LonDeg: a.cfg.Longitude})
}

func (a *app) stateManager() *state.Manager {
	stateCfg := state.DefaultConfig()
	stateCfg.ModeInterval = a.cfg.ModeInterval
	stateCfg.WeatherInterval = a.cfg.WeatherInterval
	return state.NewManager(stateCfg)
}

// runTUI mounts the sky and runs the Bubble Tea program until quit or
// signal.
func (a *app) runTUI(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	logger := a.logger
	if a.logFile == nil {
		// The alternate screen owns the terminal.
		logger.SetOutput(io.Discard)
	}

	store, err := a.overrideStore()
	if err != nil {
		return err
	}
	overrides := override.NewState(store, logger)
	go func() {
		if err := overrides.Watch(ctx); err != nil {
			logger.Warn("Override watch stopped: %v", err)
		}
	}()

	m, err := metrics.New()
	if err != nil {
		return err
	}
	if a.cfg.MetricsAddr != "" {
		go func() {
			logger.Info("Serving metrics on %s", a.cfg.MetricsAddr)
			if err := m.Serve(ctx, a.cfg.MetricsAddr); err != nil {
				logger.Error("Metrics server failed: %v", err)
			}
		}()
	}

	stateMgr := a.stateManager()
	res := resolver.New(stateMgr, a.cfg.Locator(), a.cfg.Forecast(),
		resolver.WithLogger(logger),
		resolver.WithFetchObserver(m),
	)
	res.TickMode(time.Now())
	stateMgr.RecordOverride(overrides.Get().Mode, overrides.Get().Weather)

	host := ui.NewTermHost(a.cfg.ReducedMotion, time.Now())
	var registry compositor.Registry
	layer, err := compositor.Mount(&registry, host, compositor.Params{MinFPS: a.cfg.MinFPS},
		starfield.WithObserver(m),
	)
	if err != nil {
		return err
	}
	defer layer.Unmount()

	player := music.NewPlayer(music.WithLogger(logger))
	defer player.Close()

	model := ui.New(ui.Deps{
		State:         stateMgr,
		Resolver:      res,
		Overrides:     overrides,
		Layer:         layer,
		Host:          host,
		Music:         player,
		Metrics:       m,
		SunPath:       a.sunPath(),
		Logger:        logger,
		MinFPS:        a.cfg.MinFPS,
		FrameInterval: a.cfg.FrameInterval,
	})

	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)

	// Callbacks run on producer goroutines, some while the UI itself is
	// inside Update; Send must not block them.
	res.OnChange(func(snap state.Snapshot) {
		go p.Send(ui.DataUpdateMsg{Snapshot: snap})
	})
	overrides.Subscribe(func(o override.Override) {
		stateMgr.RecordOverride(o.Mode, o.Weather)
		go p.Send(ui.OverrideMsg{Override: o})
	})

	go func() {
		if err := res.Run(ctx); err != nil {
			logger.Error("Resolver stopped: %v", err)
		}
	}()

	// Run TUI (blocks until quit)
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}
