// Package slog provides logging decorators for the siteqa service
// interfaces. Each decorator logs one line per call with its duration and
// error, then returns the wrapped result unchanged.
package slog
