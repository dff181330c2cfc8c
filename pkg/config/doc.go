// Package config loads, defaults and validates the service configuration.
//
// Configuration is a single YAML file mirroring the package structure:
// rule thresholds, engine tunables, aggregation weights, storage paths,
// retention policy and telemetry settings. Loading applies defaults,
// optional SENTINEL_* environment overrides, and then validation; an
// invalid configuration is a fatal error, never silently corrected.
// A file watcher supports hot reload of tunables that are safe to change
// at runtime.
package config
