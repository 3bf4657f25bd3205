// Package config loads, normalizes, and validates moltcast configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as HF_TOKEN and PODCAST_BASE_URL. The Config type centralizes
// every knob the CLI needs so the project directory, Moltbook source, and
// transcription settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
