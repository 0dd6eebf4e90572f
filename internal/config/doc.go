// Package config loads, normalizes, and validates repro configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// REPRO_ECHOPRINT_TOKEN and REPRO_HOSTNAME. The Config type is constructed once
// per process and handed to every component; nothing in the pipeline reads
// process-wide settings on its own.
package config
