// Package jellyfin pushes resolved episode metadata into a Jellyfin server.
//
// Jellyfin builds its own view of a library from the files and NFO sidecars
// it scans, so this package mostly nudges it: it refreshes the library that
// holds a file, waits for the series, episode and season items to appear,
// then corrects episode numbering, the season name and the season poster
// where the scan got them wrong. A disabled or unconfigured integration is a
// no-op Service.
package jellyfin
