// Package config loads, normalizes, and validates jellysports configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TSDB_API_KEY and JELLYFIN_API_KEY. The Config type centralizes every knob the
// daemon and CLI need, so library roots, the catalog cache location and
// external service credentials are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
