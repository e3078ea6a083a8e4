package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/litescript/ls-sky/internal/override"
	"github.com/litescript/ls-sky/internal/sky"
)

// autoValue returns a pinned value to automatic.
const autoValue = "auto"

func overrideCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "override",
		Short: "Show or change the pinned mode, weather and music",
		Long: "Overrides are shared with a running ls-sky, which picks up changes\n" +
			"to the override file immediately.",
	}
	cmd.AddCommand(overrideShowCommand(a), overrideSetCommand(a), overrideClearCommand(a))
	return cmd
}

func (a *app) overrideState() (*override.State, error) {
	store, err := a.overrideStore()
	if err != nil {
		return nil, err
	}
	return override.NewState(store, a.logger), nil
}

func overrideShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.overrideState()
			if err != nil {
				return err
			}
			writeOverride(cmd.OutOrStdout(), st.Get())
			return nil
		},
	}
}

type overrideSetOptions struct {
	mode    string
	weather string
	music   string
	volume  float64
}

func overrideSetCommand(a *app) *cobra.Command {
	opts := &overrideSetOptions{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Pin the mode or weather, or change music settings",
		Example: "  ls-sky override set --mode dusk --weather snow\n" +
			"  ls-sky override set --weather auto --music on --volume 0.5",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.overrideState()
			if err != nil {
				return err
			}
			if err := applyOverrideSet(cmd, st, opts); err != nil {
				return err
			}
			writeOverride(cmd.OutOrStdout(), st.Get())
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Mode to pin ("+modeNames()+", or auto)")
	cmd.Flags().StringVar(&opts.weather, "weather", "", "Weather to pin ("+conditionNames()+", or auto)")
	cmd.Flags().StringVar(&opts.music, "music", "", "Background music (on or off)")
	cmd.Flags().Float64Var(&opts.volume, "volume", override.DefaultVolume, "Music volume from 0 to 1")
	return cmd
}

// applyOverrideSet validates every flag before writing any of them.
func applyOverrideSet(cmd *cobra.Command, st *override.State, opts *overrideSetOptions) error {
	var updates []func() error

	if cmd.Flags().Changed("mode") {
		mode, err := parseModeFlag(opts.mode)
		if err != nil {
			return err
		}
		updates = append(updates, func() error { return st.SetMode(mode) })
	}
	if cmd.Flags().Changed("weather") {
		cond, err := parseWeatherFlag(opts.weather)
		if err != nil {
			return err
		}
		updates = append(updates, func() error { return st.SetWeather(cond) })
	}
	if cmd.Flags().Changed("music") {
		var enabled bool
		switch strings.ToLower(opts.music) {
		case "on", "true", "yes":
			enabled = true
		case "off", "false", "no":
		default:
			return fmt.Errorf("invalid --music %q: want on or off", opts.music)
		}
		updates = append(updates, func() error { return st.SetMusicEnabled(enabled) })
	}
	if cmd.Flags().Changed("volume") {
		if opts.volume < 0 || opts.volume > 1 {
			return fmt.Errorf("invalid --volume %v: want 0 to 1", opts.volume)
		}
		updates = append(updates, func() error { return st.SetVolume(opts.volume) })
	}

	if len(updates) == 0 {
		return fmt.Errorf("nothing to set: use --mode, --weather, --music or --volume")
	}
	for _, update := range updates {
		if err := update(); err != nil {
			return err
		}
	}
	return nil
}

func parseModeFlag(s string) (sky.Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == autoValue {
		return "", nil
	}
	mode, ok := sky.ParseMode(s)
	if !ok {
		return "", fmt.Errorf("invalid mode %q: want %s or auto", s, modeNames())
	}
	return mode, nil
}

func parseWeatherFlag(s string) (sky.Condition, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == autoValue {
		return "", nil
	}
	cond, ok := sky.ParseCondition(s)
	if !ok {
		return "", fmt.Errorf("invalid weather %q: want %s or auto", s, conditionNames())
	}
	return cond, nil
}

func overrideClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Return mode and weather to automatic",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.overrideState()
			if err != nil {
				return err
			}
			if err := st.Clear(); err != nil {
				return err
			}
			writeOverride(cmd.OutOrStdout(), st.Get())
			return nil
		},
	}
}

func writeOverride(w io.Writer, o override.Override) {
	orAuto := func(s string) string {
		if s == "" {
			return autoValue
		}
		return s
	}
	music := "off"
	if o.MusicEnabled {
		music = "on"
	}
	fmt.Fprintf(w, "%-8s %s\n", "mode", orAuto(string(o.Mode)))
	fmt.Fprintf(w, "%-8s %s\n", "weather", orAuto(string(o.Weather)))
	fmt.Fprintf(w, "%-8s %s\n", "music", music)
	fmt.Fprintf(w, "%-8s %.2f\n", "volume", o.Volume)
}

func modeNames() string {
	names := make([]string, len(sky.Modes))
	for i, m := range sky.Modes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func conditionNames() string {
	names := make([]string, len(sky.ManualConditions))
	for i, c := range sky.ManualConditions {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
