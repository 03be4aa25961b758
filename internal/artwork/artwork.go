// Package artwork places catalog images next to library files. Local images
// are operator managed: a file that already exists is never replaced.
package artwork

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"jellysports/internal/fileutil"
	"jellysports/internal/logging"
)

// ShowFile is the show-level poster name.
const ShowFile = "show.jpg"

// Fetcher downloads an image.
type Fetcher interface {
	FetchArtwork(ctx context.Context, url string) ([]byte, error)
}

// Set holds one path or URL per artwork slot.
type Set struct {
	ShowPoster   string
	SeasonPoster string
	SeasonBanner string
	SeasonSquare string
	Thumb        string
}

type slot struct {
	name string
	get  func(*Set) *string
}

var slots = []slot{
	{"show_poster", func(s *Set) *string { return &s.ShowPoster }},
	{"season_poster", func(s *Set) *string { return &s.SeasonPoster }},
	{"season_banner", func(s *Set) *string { return &s.SeasonBanner }},
	{"season_square", func(s *Set) *string { return &s.SeasonSquare }},
	{"thumb", func(s *Set) *string { return &s.Thumb }},
}

// Plan returns where the artwork of a video belongs. Season images sit in
// the video folder as seasonNN*.jpg, the thumb is named after the video, and
// show.jpg sits one folder up for files at depth 2.
func Plan(fs afero.Fs, videoPath string, depth, season int) Set {
	dir := filepath.Dir(videoPath)
	prefix := filepath.Join(dir, fmt.Sprintf("season%02d", season))
	name := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return Set{
		ShowPoster:   fileutil.ShowLevelPath(fs, dir, depth, ShowFile),
		SeasonPoster: prefix + ".jpg",
		SeasonBanner: prefix + "-banner.jpg",
		SeasonSquare: prefix + "-square.jpg",
		Thumb:        filepath.Join(dir, name+".jpg"),
	}
}

// Present keeps only the paths of plan that exist on fs.
func Present(fs afero.Fs, plan Set) Set {
	var out Set
	for _, s := range slots {
		if p := *s.get(&plan); p != "" && fileutil.Exists(fs, p) {
			*s.get(&out) = p
		}
	}
	return out
}

// Sink fetches missing artwork.
type Sink struct {
	fs      afero.Fs
	fetcher Fetcher
	logger  *slog.Logger
}

// NewSink builds a sink writing to fs. A nil logger discards output.
func NewSink(fs afero.Fs, fetcher Fetcher, logger *slog.Logger) *Sink {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Sink{fs: fs, fetcher: fetcher, logger: logging.NewComponentLogger(logger, "artwork")}
}

// Apply downloads every slot of sources whose planned file is missing. A
// failed download is logged and skipped. It returns the planned paths that
// exist afterwards and the number of files written.
func (s *Sink) Apply(ctx context.Context, plan, sources Set) (Set, int) {
	logger := logging.WithContext(ctx, s.logger)
	written := 0
	for _, sl := range slots {
		path, url := *sl.get(&plan), *sl.get(&sources)
		if path == "" || url == "" || fileutil.Exists(s.fs, path) {
			continue
		}
		if ctx.Err() != nil {
			break
		}
		if s.fetcher == nil {
			continue
		}
		data, err := s.fetcher.FetchArtwork(ctx, url)
		if err == nil && len(data) == 0 {
			err = errors.New("empty response")
		}
		if err == nil {
			err = fileutil.WriteFileAtomic(s.fs, path, data, 0o644)
		}
		if err != nil {
			logging.WarnWithContext(logger, "artwork download failed", "artwork_fetch_failed",
				logging.String("slot", sl.name),
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "the image is retried the next time the file is processed"),
				logging.String(logging.FieldImpact, "media server shows no image for this slot"),
			)
			continue
		}
		written++
		logger.Debug("artwork written", logging.String("slot", sl.name), logging.String("path", path), logging.Int("bytes", len(data)))
	}
	return Present(s.fs, plan), written
}
