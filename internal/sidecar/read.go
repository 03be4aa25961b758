package sidecar

import (
	"bufio"
	"bytes"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"jellysports/internal/fileutil"
	"jellysports/internal/textutil"
)

const (
	// EventIDExt is the extension of the file that pins a catalog event.
	EventIDExt = ".tsdbevt"
	// ShowNFO is the show-level metadata file name.
	ShowNFO = "tvshow.nfo"

	episodeRoot = "episodedetails"
	showRoot    = "tvshow"
)

var eventIDPattern = regexp.MustCompile(`^[0-9]{3,10}$`)

// Metadata is what an operator-authored sidecar supplies. Season and
// Episode are only meaningful when their Has flag is set.
type Metadata struct {
	Show       string
	Title      string
	AirDate    string
	Season     int
	HasSeason  bool
	Episode    int
	HasEpisode bool
}

// Empty reports whether no field was supplied.
func (m Metadata) Empty() bool {
	return m.Show == "" && m.Title == "" && m.AirDate == "" && !m.HasSeason && !m.HasEpisode
}

func stem(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
}

// EventIDPath is the event-id sidecar of a video.
func EventIDPath(videoPath string) string {
	return stem(videoPath) + EventIDExt
}

// EpisodeNFOPath is the episode NFO of a video.
func EpisodeNFOPath(videoPath string) string {
	return stem(videoPath) + ".nfo"
}

// ReadEventID returns the catalog event id pinned next to a video. Only the
// first line counts and it must be 3 to 10 digits.
func ReadEventID(fs afero.Fs, videoPath string) (string, bool, error) {
	raw, err := afero.ReadFile(fs, EventIDPath(videoPath))
	if err != nil {
		if !fileutil.Exists(fs, EventIDPath(videoPath)) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read event id: %w", err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	if !scanner.Scan() {
		return "", false, nil
	}
	id := strings.TrimSpace(scanner.Text())
	if !eventIDPattern.MatchString(id) {
		return "", false, nil
	}
	return id, true, nil
}

// ReadMetadata loads the episode NFO of a video. When it names no show, the
// title of the nearest tvshow.nfo (same folder, then the parent) is used.
// A missing episode NFO is not an error.
func ReadMetadata(fs afero.Fs, videoPath string) (Metadata, error) {
	var meta Metadata
	nfoPath := EpisodeNFOPath(videoPath)
	if fileutil.Exists(fs, nfoPath) {
		root, err := readNode(fs, nfoPath)
		if err != nil {
			return Metadata{}, err
		}
		if root.XMLName.Local != episodeRoot {
			return Metadata{}, fmt.Errorf("%s: root element %q is not %s", nfoPath, root.XMLName.Local, episodeRoot)
		}
		if v, ok := root.text("season"); ok {
			meta.Season, meta.HasSeason = textutil.Atoi(v)
		}
		if v, ok := root.text("episode"); ok {
			meta.Episode, meta.HasEpisode = textutil.Atoi(v)
		}
		meta.AirDate, _ = root.text("premiered")
		meta.Title, _ = root.text("title")
		meta.Show, _ = root.text("showtitle")
	}
	if meta.Show == "" {
		show, err := nearestShowTitle(fs, filepath.Dir(videoPath))
		if err != nil {
			return meta, err
		}
		meta.Show = show
	}
	return meta, nil
}

func nearestShowTitle(fs afero.Fs, dir string) (string, error) {
	path := filepath.Join(dir, ShowNFO)
	if !fileutil.Exists(fs, path) {
		path = filepath.Join(filepath.Dir(dir), ShowNFO)
		if !fileutil.Exists(fs, path) {
			return "", nil
		}
	}
	root, err := readNode(fs, path)
	if err != nil {
		return "", err
	}
	title, _ := root.text("title")
	return title, nil
}

func readNode(fs afero.Fs, path string) (node, error) {
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return node{}, fmt.Errorf("read %s: %w", path, err)
	}
	root, err := parseNode(raw)
	if err != nil {
		return node{}, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}
