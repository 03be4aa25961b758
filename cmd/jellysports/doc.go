// Package main hosts the jellysports CLI.
//
// The Cobra command tree parses file names offline, runs the resolution
// pipeline on single files, watches libraries in the foreground, and manages
// the catalog cache and configuration file. Resolution logic lives in the
// internal packages; commands only wire flags to them and render results.
package main
