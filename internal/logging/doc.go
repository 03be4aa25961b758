// Package logging assembles structured slog loggers and formatting helpers used
// across the jellysports pipeline.
//
// It owns the configurable console/JSON handlers, routes file output through a
// size-rotated writer, and exposes context-aware helpers so pipeline code can
// automatically tag log lines with the file being processed, the stage, and a
// correlation ID. The package also provides a no-op logger for tests and wiring
// code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits data with the same shape.
package logging
