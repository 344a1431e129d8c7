// Package config loads, normalizes, and validates wax configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OBS_WEBSOCKET_PASSWORD. The Config type centralizes every knob the daemon
// and CLI need, from the recordings directory to recorder-specific settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
