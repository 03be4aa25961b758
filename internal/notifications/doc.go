// Package notifications alerts the operator about files that need a manual
// look.
//
// The ntfy implementation posts to the topic URL configured under
// [notifications]; without a topic a no-op is returned so callers never
// check whether alerts are enabled.
package notifications
