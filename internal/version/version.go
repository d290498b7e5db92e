// Package version provides build and version information.
package version

// Version is the current application version.
const Version = "0.3.0"

// Milestones:
// 0.3.0 - HTTP JSON endpoints with Prometheus metrics, timeline PNG export
// 0.2.0 - Meeus VSOP87 ephemeris, Horizons fallback chain, timezone lookup
// 0.1.0 - Initial release: stargazing report, TUI dashboard, interactive menu
