// Package sidecar reads and writes the files kept next to a video: the
// Kodi-style episode and tvshow NFO documents, and the .tsdbevt file that
// pins a catalog event id.
//
// NFO documents are merged, not replaced. Unknown elements survive a rewrite,
// artwork references are never overwritten, and a file is only written when
// one of the managed fields actually changed.
package sidecar
