// Package config loads, normalizes, and validates reelsmith configuration.
//
// Configuration is TOML with environment variable fallbacks for secrets. Load
// follows a fixed order: defaults, optional .env file, the config file, env
// fallbacks, normalization, validation. Every path field is expanded and
// absolute by the time Load returns.
package config
