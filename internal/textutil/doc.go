// Package textutil provides small text helpers shared by the resolution
// pipeline.
//
// The primary use cases are:
//   - Deriving a stable three-digit fingerprint from a name, used to keep
//     generated episode numbers unique yet reproducible across runs
//   - Removing the last occurrence of a substring from event text
//   - Canonicalizing team names before containment comparisons
package textutil
