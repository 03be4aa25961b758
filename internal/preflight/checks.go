package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"jellysports/internal/services"
	"jellysports/internal/services/jellyfin"
	"jellysports/internal/sportsdb"
)

const (
	catalogTimeout = 30 * time.Second
	mediaTimeout   = 10 * time.Second
)

// Catalog is the catalog call used as a reachability probe.
type Catalog interface {
	AllSports(ctx context.Context) ([]sportsdb.Sport, error)
}

// MediaServer lists media server libraries.
type MediaServer interface {
	Libraries(ctx context.Context) ([]jellyfin.Library, error)
}

// CheckCatalog verifies that the catalog answers with the configured key.
func CheckCatalog(ctx context.Context, catalog Catalog) Result {
	const name = "TheSportsDB"

	checkCtx, cancel := context.WithTimeout(ctx, catalogTimeout)
	defer cancel()

	sports, err := catalog.AllSports(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	if len(sports) == 0 {
		return Result{Name: name, Detail: "reachable but returned no sports (check the api key tier)"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d sports)", len(sports))}
}

// CheckJellyfin verifies connectivity and authentication by listing
// libraries.
func CheckJellyfin(ctx context.Context, media MediaServer) Result {
	const name = "Jellyfin"

	checkCtx, cancel := context.WithTimeout(ctx, mediaTimeout)
	defer cancel()

	libs, err := media.Libraries(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("reachable (%d libraries)", len(libs))}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (service unreachable)"
	}
	switch {
	case errors.Is(err, services.ErrRateLimited):
		return "rate limited; try again later"
	case errors.Is(err, services.ErrNotFound):
		return "endpoint not found (check the base url)"
	}
	return err.Error()
}
