// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.4.0"

// Milestones:
// 0.4.0 - Background music, override subcommands, snapshot --frame
// 0.3.0 - Weather overlay: clouds, rain, snow, hail, wind, lightning
// 0.2.0 - Starfield: parallax, decorations, moon phase, meteors, FPS throttle
// 0.1.0 - Initial release: time-of-day themes, IP location, current weather
