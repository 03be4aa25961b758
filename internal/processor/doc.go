// Package processor turns one library file into a resolved metadata record.
//
// A file name is cleaned, read as an episode and session, overlaid with any
// operator sidecar and matched against the catalog. The resulting record is
// handed to the artwork, NFO and media-server sinks in that order. Fields an
// operator wrote into the sidecar always survive into the record.
package processor
