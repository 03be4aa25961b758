package preflight

import (
	"context"

	"jellysports/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every applicable check for cfg. A nil media server skips
// the Jellyfin check.
func RunAll(ctx context.Context, cfg *config.Config, catalog Catalog, media MediaServer) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir))
	for _, root := range cfg.Paths.LibraryRoots {
		results = append(results, CheckDirectoryAccess("Library root", root))
	}

	if catalog != nil {
		results = append(results, CheckCatalog(ctx, catalog))
	}
	if cfg.Jellyfin.Enabled && media != nil {
		results = append(results, CheckJellyfin(ctx, media))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
