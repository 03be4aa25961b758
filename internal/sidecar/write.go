package sidecar

import (
	"encoding/xml"
	"path/filepath"
	"strconv"

	"github.com/spf13/afero"

	"jellysports/internal/fileutil"
	"jellysports/internal/fuzzy"
)

// plotSimilarity is the Jaro-Winkler score at which a stored plot is
// considered the same text as the catalog description.
const plotSimilarity = 0.99

// ShowInfo is merged into tvshow.nfo.
type ShowInfo struct {
	Title       string
	Description string
	LeagueID    string
	Sport       string
	Season      int
	SeasonName  string
	// SeasonPoster and ShowPoster are artwork paths; empty means none.
	SeasonPoster string
	ShowPoster   string
}

// EpisodeInfo is merged into the episode NFO.
type EpisodeInfo struct {
	Title       string
	Description string
	EventID     string
	Aired       string
	Season      int
	Episode     int
	Thumb       string
}

// ShowNFOPath is where the tvshow.nfo of a video at depth lives.
func ShowNFOPath(fs afero.Fs, videoPath string, depth int) string {
	return fileutil.ShowLevelPath(fs, filepath.Dir(videoPath), depth, ShowNFO)
}

// WriteShow merges info into the tvshow.nfo at path. It reports whether the
// file was written.
func WriteShow(fs afero.Fs, path string, info ShowInfo) (bool, error) {
	root, err := loadOrNew(fs, path, showRoot)
	if err != nil {
		return false, err
	}
	season := strconv.Itoa(info.Season)

	changed := root.setText("title", info.Title)
	changed = mergePlot(&root, info.Description) || changed
	changed = mergeUniqueID(&root, orZero(info.LeagueID), true) || changed

	if info.Sport != "" && !hasChildText(&root, "genre", info.Sport) {
		root.append(newNode("genre", info.Sport))
		changed = true
	}

	named := false
	for i := range root.Nodes {
		n := &root.Nodes[i]
		if n.XMLName.Local != "namedseason" {
			continue
		}
		if number, _ := n.attrValue("number"); number != season {
			continue
		}
		named = true
		if n.Text != info.SeasonName {
			n.Text = info.SeasonName
			changed = true
		}
		break
	}
	if !named {
		root.append(newNode("namedseason", info.SeasonName, attr("number", season)))
		changed = true
	}

	// Existing poster references are operator art and stay as they are.
	var haveSeason, haveShow bool
	for i := range root.Nodes {
		n := &root.Nodes[i]
		if n.XMLName.Local != "thumb" {
			continue
		}
		aspect, _ := n.attrValue("aspect")
		if aspect != "poster" {
			continue
		}
		if s, ok := n.attrValue("season"); ok {
			if s == season {
				haveSeason = true
			}
			continue
		}
		haveShow = true
	}
	if !haveSeason && info.SeasonPoster != "" {
		root.append(newNode("thumb", info.SeasonPoster,
			attr("aspect", "poster"), attr("type", "season"), attr("season", season), attr("preview", "")))
		changed = true
	}
	if !haveShow && info.ShowPoster != "" {
		root.append(newNode("thumb", info.ShowPoster, attr("aspect", "poster"), attr("preview", "")))
		changed = true
	}

	if !changed {
		return false, nil
	}
	return true, save(fs, path, &root)
}

// WriteEpisode merges info into the episode NFO at path. It reports whether
// the file was written.
func WriteEpisode(fs afero.Fs, path string, info EpisodeInfo) (bool, error) {
	root, err := loadOrNew(fs, path, episodeRoot)
	if err != nil {
		return false, err
	}

	changed := root.setText("title", info.Title)
	changed = mergePlot(&root, info.Description) || changed
	changed = mergeUniqueID(&root, orZero(info.EventID), false) || changed
	if info.Aired != "" {
		changed = root.setText("aired", info.Aired) || changed
	}
	changed = root.setText("season", strconv.Itoa(info.Season)) || changed
	changed = root.setText("episode", strconv.Itoa(info.Episode)) || changed

	if info.Thumb != "" {
		found := false
		for i := range root.Nodes {
			n := &root.Nodes[i]
			if aspect, _ := n.attrValue("aspect"); n.XMLName.Local == "thumb" && aspect == "thumb" && n.Text == info.Thumb {
				found = true
				break
			}
		}
		if !found {
			root.append(newNode("thumb", info.Thumb, attr("aspect", "thumb"), attr("preview", "")))
			changed = true
		}
	}

	if !changed {
		return false, nil
	}
	return true, save(fs, path, &root)
}

// mergePlot only replaces a stored plot that reads differently; round trips
// through the catalog and XML rarely reproduce text byte for byte.
func mergePlot(root *node, description string) bool {
	if description == "" {
		return false
	}
	i := root.child("plot")
	if i < 0 {
		root.append(newNode("plot", description))
		return true
	}
	if fuzzy.JaroWinkler(root.Nodes[i].Text, description) >= plotSimilarity {
		return false
	}
	root.Nodes[i].Text = description
	return true
}

// mergeUniqueID keeps the tsdb uniqueid in sync. resetAttrs rewrites the
// attributes on change, the way show documents are tagged.
func mergeUniqueID(root *node, id string, resetAttrs bool) bool {
	i := root.child("uniqueid")
	if i < 0 {
		root.append(newNode("uniqueid", id, attr("type", "tsdb"), attr("default", "false")))
		return true
	}
	n := &root.Nodes[i]
	if n.Text == id {
		return false
	}
	n.Text = id
	if resetAttrs {
		n.Attrs = []xml.Attr{attr("type", "tsdb"), attr("default", "false")}
	}
	return true
}

func hasChildText(root *node, tag, text string) bool {
	for i := range root.Nodes {
		if root.Nodes[i].XMLName.Local == tag && root.Nodes[i].Text == text {
			return true
		}
	}
	return false
}

func orZero(id string) string {
	if id == "" {
		return "0"
	}
	return id
}

func loadOrNew(fs afero.Fs, path, rootTag string) (node, error) {
	if !fileutil.Exists(fs, path) {
		return newNode(rootTag, ""), nil
	}
	return readNode(fs, path)
}

func save(fs afero.Fs, path string, root *node) error {
	data, err := root.marshal()
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(fs, path, data, 0o644)
}
