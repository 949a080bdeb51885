// Package logging configures log/slog for backdrops.
//
// With --debug, JSON logs are written to ~/.backdrops/logs/backdrops.log with
// size-based rotation, tee'd to stderr. Without it, commands log warnings and
// errors to stderr in text form only.
package logging
