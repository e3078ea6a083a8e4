package sky

// Theme holds the visual parameters for a mode.
type Theme struct {
	GradientFrom    string  // top of the sky, hex
	GradientTo      string  // bottom of the sky, hex
	StarIntensity   float64 // 0..1
	OverlayDarkness float64 // 0..1
	ShowSun         bool
	ShowMoon        bool
}

// ThemeFor returns the theme for a mode. Unrecognized modes get the night theme.
func ThemeFor(m Mode) Theme {
	switch m {
	case ModeDawn:
		return Theme{GradientFrom: "#1a2548", GradientTo: "#f6b37b", StarIntensity: 0.35, OverlayDarkness: 0.18, ShowSun: true, ShowMoon: true}
	case ModeMorning:
		return Theme{GradientFrom: "#5fb0ff", GradientTo: "#a2d9ff", StarIntensity: 0.08, OverlayDarkness: 0.08, ShowSun: true}
	case ModeNoon:
		return Theme{GradientFrom: "#6fc3ff", GradientTo: "#d2f0ff", StarIntensity: 0.05, OverlayDarkness: 0.06, ShowSun: true}
	case ModeAfternoon:
		return Theme{GradientFrom: "#5aa0ff", GradientTo: "#bcdfff", StarIntensity: 0.07, OverlayDarkness: 0.08, ShowSun: true}
	case ModeDusk:
		return Theme{GradientFrom: "#223058", GradientTo: "#ff9361", StarIntensity: 0.35, OverlayDarkness: 0.14, ShowSun: true, ShowMoon: true}
	default:
		return Theme{GradientFrom: "#0a1b3f", GradientTo: "#152a5c", StarIntensity: 1, OverlayDarkness: 0.30, ShowMoon: true}
	}
}
