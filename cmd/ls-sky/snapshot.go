package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/ls-sky/internal/astro"
	"github.com/litescript/ls-sky/internal/canvas"
	"github.com/litescript/ls-sky/internal/compositor"
	"github.com/litescript/ls-sky/internal/export"
	"github.com/litescript/ls-sky/internal/geo"
	"github.com/litescript/ls-sky/internal/override"
	"github.com/litescript/ls-sky/internal/resolver"
	"github.com/litescript/ls-sky/internal/ui"
)

const (
	defaultCols = 80
	defaultRows = 24
)

type snapshotOptions struct {
	jsonOut bool
	frame   bool
	cols    int
	rows    int
	timeout time.Duration
}

func snapshotCommand(a *app) *cobra.Command {
	opts := &snapshotOptions{}
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Resolve the sky once and print it",
		Long: "Locates, fetches the current weather, applies overrides and prints the result.\n" +
			"With --frame, also renders one still frame of the sky.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runSnapshot(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().BoolVar(&opts.jsonOut, "json", false, "Print JSON instead of a text summary")
	cmd.Flags().BoolVar(&opts.frame, "frame", false, "Render a still frame after the summary")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "Frame width in cells (default: terminal width or 80)")
	cmd.Flags().IntVar(&opts.rows, "rows", 0, "Frame height in cells (default: terminal height or 24)")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 15*time.Second, "Give up on location and weather after this long")
	return cmd
}

func (a *app) runSnapshot(ctx context.Context, w io.Writer, opts *snapshotOptions) error {
	ctx, cancel := context.WithTimeout(ctx, opts.timeout)
	defer cancel()

	logger := a.logger
	now := time.Now()

	stateMgr := a.stateManager()
	res := resolver.New(stateMgr, nil, a.cfg.Forecast(), resolver.WithLogger(logger))
	res.TickMode(now)

	pos, err := a.cfg.Locator().Locate(ctx)
	if err != nil {
		logger.Warn("Position unavailable: %v", err)
		stateMgr.SetPosition(pos, err)
	} else {
		res.SetPosition(pos)
		if err := res.RefreshWeather(ctx); err != nil {
			logger.Warn("Weather unavailable: %v", err)
		}
	}

	store, err := a.overrideStore()
	if err != nil {
		return err
	}
	ov := override.NewState(store, logger).Get()
	snap := stateMgr.Snapshot()

	params := compositor.ParamsFor(resolver.Effective(snap, ov), snapshotSunPath(a, snap.Position), now)
	exp := export.ExportSnapshot(snap, ov, params, now)
	if opts.jsonOut {
		if err := exp.WriteJSON(w); err != nil {
			return err
		}
	} else {
		exp.WriteSummary(w)
	}

	if !opts.frame {
		return nil
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))
	cols, rows := frameSize(opts, isTTY)
	host := ui.NewTermHost(true, now)
	host.Resize(cols, rows)
	grid := compositor.Still(host, params, 0)

	fmt.Fprintln(w)
	if isTTY {
		fmt.Fprint(w, canvas.Render(grid))
	} else {
		fmt.Fprint(w, canvas.RenderPlain(grid))
	}
	fmt.Fprintln(w)
	return nil
}

func snapshotSunPath(a *app, pos *geo.Position) *astro.SunPath {
	if sun := a.sunPath(); sun != nil {
		return sun
	}
	if pos != nil && pos.Valid() {
		return astro.NewSunPath(astro.Observer{LatDeg: pos.Latitude, LonDeg: pos.Longitude})
	}
	return nil
}

// frameSize picks the frame size from flags, then the terminal, then
// defaults. One row is left for the prompt.
func frameSize(opts *snapshotOptions, isTTY bool) (cols, rows int) {
	cols, rows = defaultCols, defaultRows
	if isTTY {
		if c, r, err := term.GetSize(int(os.Stdout.Fd())); err == nil && c > 0 && r > 1 {
			cols, rows = c, r-1
		}
	}
	if opts.cols > 0 {
		cols = opts.cols
	}
	if opts.rows > 0 {
		rows = opts.rows
	}
	return cols, rows
}
