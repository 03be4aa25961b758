package sidecar

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const video = "/lib/Formula 1/Season 05/Monaco.mkv"

func write(t *testing.T, fs afero.Fs, path, body string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
}

func TestReadEventID(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		want   string
		wantOK bool
	}{
		{"valid", "1032723\n", "1032723", true},
		{"first line only", "  441613 \nignored\n", "441613", true},
		{"too short", "12\n", "", false},
		{"too long", "12345678901\n", "", false},
		{"not numeric", "abc123\n", "", false},
		{"empty", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			write(t, fs, "/lib/Formula 1/Season 05/Monaco.tsdbevt", tc.body)
			id, ok, err := ReadEventID(fs, video)
			require.NoError(t, err)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.want, id)
		})
	}
}

func TestReadEventIDMissing(t *testing.T) {
	id, ok, err := ReadEventID(afero.NewMemMapFs(), video)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestReadMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/lib/Formula 1/Season 05/Monaco.nfo", `<?xml version="1.0" encoding="UTF-8"?>
<episodedetails>
  <title> Monaco Grand Prix - Race </title>
  <showtitle>Formula 1 (2024)</showtitle>
  <season>5</season>
  <episode>411</episode>
  <premiered>2024-05-26</premiered>
</episodedetails>`)

	meta, err := ReadMetadata(fs, video)
	require.NoError(t, err)
	assert.Equal(t, Metadata{
		Show:       "Formula 1 (2024)",
		Title:      "Monaco Grand Prix - Race",
		AirDate:    "2024-05-26",
		Season:     5,
		HasSeason:  true,
		Episode:    411,
		HasEpisode: true,
	}, meta)
	assert.False(t, meta.Empty())
}

func TestReadMetadataShowFallsBackToParentShowNFO(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/lib/Formula 1/Season 05/Monaco.nfo", `<episodedetails><title>Race</title></episodedetails>`)
	write(t, fs, "/lib/Formula 1/tvshow.nfo", `<tvshow><title>Formula 1 (2024)</title></tvshow>`)

	meta, err := ReadMetadata(fs, video)
	require.NoError(t, err)
	assert.Equal(t, "Formula 1 (2024)", meta.Show)
	assert.Equal(t, "Race", meta.Title)
	assert.False(t, meta.HasSeason)

	write(t, fs, "/lib/Formula 1/Season 05/tvshow.nfo", `<tvshow><title>Local</title></tvshow>`)
	meta, err = ReadMetadata(fs, video)
	require.NoError(t, err)
	assert.Equal(t, "Local", meta.Show)
}

func TestReadMetadataNoFiles(t *testing.T) {
	meta, err := ReadMetadata(afero.NewMemMapFs(), video)
	require.NoError(t, err)
	assert.True(t, meta.Empty())
}

func TestReadMetadataRejectsWrongRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/lib/Formula 1/Season 05/Monaco.nfo", `<movie><title>x</title></movie>`)
	_, err := ReadMetadata(fs, video)
	require.Error(t, err)
}

func TestReadMetadataMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	write(t, fs, "/lib/Formula 1/Season 05/Monaco.nfo", `<episodedetails><title>`)
	_, err := ReadMetadata(fs, video)
	require.Error(t, err)
}

func TestWriteShowCreatesDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/lib/Formula 1/tvshow.nfo"
	changed, err := WriteShow(fs, path, ShowInfo{
		Title:        "Formula 1 (2024)",
		Description:  "The pinnacle of motorsport.",
		LeagueID:     "4370",
		Sport:        "Motorsport",
		Season:       5,
		SeasonName:   "05 : Monaco Grand Prix @ Circuit de Monaco",
		SeasonPoster: "/lib/Formula 1/Season 05/season05.jpg",
		ShowPoster:   "/lib/Formula 1/show.jpg",
	})
	require.NoError(t, err)
	assert.True(t, changed)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	body := string(raw)
	assert.True(t, strings.HasPrefix(body, "<?xml"))
	assert.Contains(t, body, "<title>Formula 1 (2024)</title>")
	assert.Contains(t, body, `<uniqueid type="tsdb" default="false">4370</uniqueid>`)
	assert.Contains(t, body, "<genre>Motorsport</genre>")
	assert.Contains(t, body, `<namedseason number="5">05 : Monaco Grand Prix @ Circuit de Monaco</namedseason>`)
	assert.Contains(t, body, `<thumb aspect="poster" type="season" season="5" preview="">/lib/Formula 1/Season 05/season05.jpg</thumb>`)
	assert.Contains(t, body, `<thumb aspect="poster" preview="">/lib/Formula 1/show.jpg</thumb>`)

	meta, err := ReadMetadata(fs, video)
	require.NoError(t, err)
	assert.Equal(t, "Formula 1 (2024)", meta.Show)
}

func TestWriteShowUnchangedIsNotRewritten(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/lib/Formula 1/tvshow.nfo"
	info := ShowInfo{Title: "Formula 1 (2024)", Description: "Racing.", Sport: "Motorsport", Season: 1, SeasonName: "01 : Bahrain"}

	changed, err := WriteShow(fs, path, info)
	require.NoError(t, err)
	require.True(t, changed)
	first, err := afero.ReadFile(fs, path)
	require.NoError(t, err)

	changed, err = WriteShow(fs, path, info)
	require.NoError(t, err)
	assert.False(t, changed)
	second, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, string(second), `<uniqueid type="tsdb" default="false">0</uniqueid>`)
}

func TestWriteShowMergesIntoExisting(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/lib/Formula 1/tvshow.nfo"
	write(t, fs, path, `<?xml version="1.0" encoding="UTF-8"?>
<tvshow>
  <title>Old</title>
  <plot>The pinnacle of motorsport</plot>
  <genre>Motorsport</genre>
  <studio>Operator Studio</studio>
  <namedseason number="5">stale</namedseason>
  <namedseason number="6">Untouched</namedseason>
  <thumb aspect="poster" preview="">/art/custom-show.jpg</thumb>
  <thumb aspect="poster" type="season" season="5" preview="">/art/custom-season.jpg</thumb>
</tvshow>`)

	changed, err := WriteShow(fs, path, ShowInfo{
		Title:        "Formula 1 (2024)",
		Description:  "The pinnacle of motorsport.",
		LeagueID:     "4370",
		Sport:        "Motorsport",
		Season:       5,
		SeasonName:   "05 : Monaco Grand Prix",
		SeasonPoster: "/lib/season05.jpg",
		ShowPoster:   "/lib/show.jpg",
	})
	require.NoError(t, err)
	assert.True(t, changed)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, "<title>Formula 1 (2024)</title>")
	// Near-identical plot text is left alone.
	assert.Contains(t, body, "<plot>The pinnacle of motorsport</plot>")
	assert.Equal(t, 1, strings.Count(body, "<genre>"))
	assert.Contains(t, body, "<studio>Operator Studio</studio>")
	assert.Contains(t, body, `<namedseason number="5">05 : Monaco Grand Prix</namedseason>`)
	assert.Contains(t, body, `<namedseason number="6">Untouched</namedseason>`)
	assert.Contains(t, body, "/art/custom-show.jpg")
	assert.Contains(t, body, "/art/custom-season.jpg")
	assert.NotContains(t, body, "/lib/season05.jpg")
	assert.NotContains(t, body, "/lib/show.jpg")
}

func TestWriteShowReplacesDifferentPlot(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/lib/NFL/tvshow.nfo"
	write(t, fs, path, `<tvshow><plot>Something else entirely</plot></tvshow>`)

	_, err := WriteShow(fs, path, ShowInfo{Title: "NFL (2023)", Description: "American football league.", Season: 1, SeasonName: "01 : Week 1"})
	require.NoError(t, err)
	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<plot>American football league.</plot>")
	assert.NotContains(t, string(raw), "Something else entirely")
}

func TestWriteEpisode(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := EpisodeNFOPath(video)
	info := EpisodeInfo{
		Title:       "Monaco Grand Prix - Race",
		Description: "Round 8.",
		EventID:     "1032723",
		Aired:       "2024-05-26",
		Season:      5,
		Episode:     411,
		Thumb:       "/lib/Formula 1/Season 05/Monaco.jpg",
	}
	changed, err := WriteEpisode(fs, path, info)
	require.NoError(t, err)
	assert.True(t, changed)

	raw, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	body := string(raw)
	assert.Contains(t, body, "<episodedetails>")
	assert.Contains(t, body, `<uniqueid type="tsdb" default="false">1032723</uniqueid>`)
	assert.Contains(t, body, "<aired>2024-05-26</aired>")
	assert.Contains(t, body, "<episode>411</episode>")
	assert.Contains(t, body, `<thumb aspect="thumb" preview="">/lib/Formula 1/Season 05/Monaco.jpg</thumb>`)

	meta, err := ReadMetadata(fs, video)
	require.NoError(t, err)
	assert.Equal(t, "Monaco Grand Prix - Race", meta.Title)
	assert.Equal(t, 5, meta.Season)
	assert.Equal(t, 411, meta.Episode)

	changed, err = WriteEpisode(fs, path, info)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestShowNFOPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/lib/Formula 1/Season 05", 0o755))

	assert.Equal(t, "/lib/Formula 1/tvshow.nfo", ShowNFOPath(fs, video, 2))
	assert.Equal(t, "/lib/Formula 1/Season 05/tvshow.nfo", ShowNFOPath(fs, video, 1))
}
