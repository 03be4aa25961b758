// Package services defines shared utilities consumed by the processing pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp file paths, stage names, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent outcomes (matched, no match, rejected, failed).
//
// Use these helpers when wiring new pipeline steps so operational behaviour
// (error handling, observability) stays uniform.
package services
