// Package config loads, normalizes, and validates vodsub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and applies VODSUB_* environment overrides
// for the speech model, speech engine, language, thread count and
// directories. The Config type is populated once at startup and passed to
// each pipeline stage; nothing mutates it afterwards.
//
// Loading never touches the filesystem beyond reading the config file, so a
// failed requirement check leaves no trace. EnsureDirectories is the explicit
// step that creates the work, results and state directories.
package config
