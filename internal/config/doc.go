// Package config loads, normalizes, and validates vox2ksh configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours VOX2KSH_* environment overrides for the directory
// settings. The Config type centralizes every knob the CLI and batch runner
// need so extracted game data and output locations are resolved in one pass.
package config
