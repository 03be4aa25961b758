// Package preflight provides readiness checks for the paths and remote
// services jellysports depends on.
//
// The daemon runs them once at startup and logs every failure; the CLI
// "jellysports status" command renders them as a table. Checks for disabled
// features are skipped.
package preflight
