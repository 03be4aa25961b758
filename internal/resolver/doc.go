// Package resolver matches a parsed episode against the catalog and returns
// at most one event.
//
// Resolution stops at the first step that succeeds:
//
//  1. An explicit event id from a sidecar file is looked up directly.
//  2. Without a league id, the show name is resolved to one.
//  3. The league's sport format selects the team-game or the single-event
//     strategy. Unknown formats do not match.
//
// Every failure along the way, including remote errors and ambiguous
// candidate sets, ends in "no match" rather than a guess.
package resolver
