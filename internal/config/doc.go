// Package config loads, normalizes, and validates visualverify configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads optional .env files, and honours
// environment fallbacks such as SERPAPI_KEY and BING_API_KEY. The Config type
// centralizes every knob the daemon and CLI need so that provider
// credentials, queue location, and worker timing are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
