// Package config loads, validates, and normalizes mediascan configuration.
//
// Configuration lives in a TOML file (default ~/.config/mediascan/config.toml)
// and is decoded over repository defaults, so a missing file or a partial file
// still yields a usable configuration.
package config
