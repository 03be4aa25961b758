// Package sportsdb is a client for the TheSportsDB v2 JSON API.
//
// Every request carries the X-API-KEY header, waits on a client-side rate
// limiter, and retries HTTP 429 responses with a linear backoff. Lookups that
// return no rows report services.ErrNotFound so callers can degrade to a
// no-match result.
package sportsdb
