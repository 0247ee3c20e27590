// Package logging builds the slog loggers used across mediascan.
//
// Two output formats are supported: a compact console format for interactive
// use and JSON for machine consumption. The "auto" format picks console when
// stdout is a terminal.
package logging
