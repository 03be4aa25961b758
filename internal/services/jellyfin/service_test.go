package jellyfin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellysports/internal/config"
	"jellysports/internal/services"
)

type fakeServer struct {
	t *testing.T

	mu        sync.Mutex
	series    []map[string]any
	episodes  []map[string]any
	seasons   []map[string]any
	updates   map[string]map[string]any
	images    map[string][]byte
	refreshes []string
}

func newFakeServer(t *testing.T) *fakeServer {
	return &fakeServer{t: t, updates: map[string]map[string]any{}, images: map[string][]byte{}}
}

func (f *fakeServer) all() []map[string]any {
	out := append([]map[string]any{}, f.series...)
	out = append(out, f.seasons...)
	return append(out, f.episodes...)
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if got := r.Header.Get("Authorization"); !assert.Equal(f.t, `MediaBrowser Token="secret"`, got) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	q := r.URL.Query()
	path := strings.TrimPrefix(r.URL.Path, "/")
	switch {
	case path == "Library/VirtualFolders":
		writeJSON(w, []map[string]any{
			{"Name": "Movies", "ItemId": "lib-movies", "Locations": []string{"/srv/media/Movies"}},
			{"Name": "Sports", "ItemId": "lib-sports", "Locations": []string{"/srv/media/Sports"}},
		})
	case path == "Library/MediaFolders":
		writeJSON(w, map[string]any{"Items": []map[string]any{{"Id": "lib-last"}}})
	case path == "Items" && q.Get("Ids") != "":
		for _, item := range f.all() {
			if item["Id"] == q.Get("Ids") {
				writeJSON(w, map[string]any{"Items": []map[string]any{item}})
				return
			}
		}
		writeJSON(w, map[string]any{"Items": []map[string]any{}})
	case path == "Items":
		var items []map[string]any
		switch q.Get("IncludeItemTypes") {
		case "Series":
			items = f.series
		case "Season":
			items = f.seasons
		case "Episode":
			items = f.episodes
		}
		writeJSON(w, map[string]any{"Items": items})
	case strings.HasSuffix(path, "/Refresh"):
		assert.Equal(f.t, "true", q.Get("Recursive"))
		f.refreshes = append(f.refreshes, strings.TrimSuffix(strings.TrimPrefix(path, "Items/"), "/Refresh"))
		w.WriteHeader(http.StatusNoContent)
	case strings.HasSuffix(path, "/Images/Primary"):
		assert.Equal(f.t, "image/jpeg", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		decoded, err := base64.StdEncoding.DecodeString(string(body))
		assert.NoError(f.t, err)
		f.images[strings.TrimSuffix(strings.TrimPrefix(path, "Items/"), "/Images/Primary")] = decoded
		w.WriteHeader(http.StatusNoContent)
	case strings.HasPrefix(path, "Items/") && r.Method == http.MethodPost:
		assert.Equal(f.t, "application/json", r.Header.Get("Content-Type"))
		var doc map[string]any
		assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&doc))
		f.updates[strings.TrimPrefix(path, "Items/")] = doc
		w.WriteHeader(http.StatusNoContent)
	default:
		assert.Fail(f.t, "unexpected request", "%s %s", r.Method, r.URL)
		w.WriteHeader(http.StatusNotFound)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func newService(t *testing.T, fake *fakeServer, fs afero.Fs) Service {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL+"/", "secret", server.Client())
	require.NoError(t, err)
	return NewHTTPService(client, WithRetry(1, 0), WithFS(fs))
}

const videoPath = "/data/Sports/Formula 1 (2024)/Season 05/Monaco.mkv"

func TestSyncCorrectsEpisodeSeasonAndPoster(t *testing.T) {
	fake := newFakeServer(t)
	fake.series = []map[string]any{{"Id": "series-1", "Name": "Formula 1 (2024)"}}
	fake.episodes = []map[string]any{{
		"Id": "ep-1", "Name": "Monaco", "Path": videoPath, "SeriesId": "series-1", "ParentId": "season-5",
		"IndexNumber": 1, "ParentIndexNumber": 5, "Overview": "keep me",
	}}
	fake.seasons = []map[string]any{
		{"Id": "season-4", "Name": "Season 4", "IndexNumber": 4},
		{"Id": "season-5", "Name": "Season 5", "IndexNumber": 5},
	}

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/Sports/Formula 1 (2024)/Season 05/season05.jpg", []byte("jpeg"), 0o644))

	svc := newService(t, fake, fs)
	err := svc.Sync(context.Background(), Update{
		Show:         "Formula 1 (2024)",
		Path:         videoPath,
		Season:       5,
		Episode:      411,
		Title:        "Monaco Grand Prix - Race",
		SeasonName:   "05 : Monaco Grand Prix @ Circuit de Monaco",
		SeasonPoster: "/data/Sports/Formula 1 (2024)/Season 05/season05.jpg",
	})
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	ep := fake.updates["ep-1"]
	require.NotNil(t, ep)
	assert.EqualValues(t, 411, ep["IndexNumber"])
	assert.EqualValues(t, 5, ep["ParentIndexNumber"])
	assert.Equal(t, "Monaco Grand Prix - Race", ep["Name"])
	assert.Equal(t, "keep me", ep["Overview"])

	season := fake.updates["season-5"]
	require.NotNil(t, season)
	assert.Equal(t, "05 : Monaco Grand Prix @ Circuit de Monaco", season["Name"])
	assert.NotContains(t, fake.updates, "season-4")

	assert.Equal(t, []byte("jpeg"), fake.images["season-5"])
	require.NotEmpty(t, fake.refreshes)
	assert.Equal(t, "lib-sports", fake.refreshes[0])
	assert.Equal(t, "series-1", fake.refreshes[len(fake.refreshes)-1])
}

func TestSyncSkipsUpdatesWhenServerAgrees(t *testing.T) {
	fake := newFakeServer(t)
	fake.series = []map[string]any{{"Id": "series-1", "Name": "NFL (2023)"}}
	fake.episodes = []map[string]any{{
		"Id": "ep-1", "Name": "1: Jets at Bills - full game", "Path": "/data/Sports/NFL/Season 01/game.mkv",
		"SeriesId": "series-1", "IndexNumber": 101, "ParentIndexNumber": 1,
	}}
	fake.seasons = []map[string]any{{"Id": "season-1", "Name": "01 : Jets at Bills", "IndexNumber": 1}}

	svc := newService(t, fake, afero.NewMemMapFs())
	err := svc.Sync(context.Background(), Update{
		Show:       "NFL (2023)",
		Path:       "/data/Sports/NFL/Season 01/game.mkv",
		Season:     1,
		Episode:    101,
		Title:      "1: Jets at Bills - full game",
		SeasonName: "01 : Jets at Bills",
	})
	require.NoError(t, err)
	assert.Empty(t, fake.updates)
	assert.Empty(t, fake.images)
}

func TestSyncFindsSeriesThroughEpisodeFile(t *testing.T) {
	fake := newFakeServer(t)
	fake.series = []map[string]any{{"Id": "series-9", "Name": "Formula One"}}
	fake.episodes = []map[string]any{{
		"Id": "ep-1", "Name": "x", "Path": videoPath, "SeriesId": "series-9", "IndexNumber": 411, "ParentIndexNumber": 5,
	}}
	fake.seasons = []map[string]any{{"Id": "season-5", "Name": "n", "IndexNumber": 5}}

	svc := newService(t, fake, afero.NewMemMapFs())
	err := svc.Sync(context.Background(), Update{Show: "Formula 1 (2024)", Path: videoPath, Season: 5, Episode: 411, Title: "x"})
	require.NoError(t, err)
	assert.Contains(t, fake.refreshes, "series-9")
}

func TestSyncEpisodeNeverVisible(t *testing.T) {
	fake := newFakeServer(t)
	fake.series = []map[string]any{{"Id": "series-1", "Name": "Formula 1 (2024)"}}

	svc := newService(t, fake, afero.NewMemMapFs())
	err := svc.Sync(context.Background(), Update{Show: "Formula 1 (2024)", Path: videoPath, Season: 5, Episode: 411, Title: "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.Equal(t, services.OutcomeNoMatch, services.Classify(err))
	// One library refresh, then a series refresh per retry round.
	assert.Greater(t, len(fake.refreshes), 1)
}

func TestSyncUnknownLibraryUsesLastMediaFolder(t *testing.T) {
	fake := newFakeServer(t)
	fake.series = []map[string]any{{"Id": "series-1", "Name": "Show"}}
	fake.episodes = []map[string]any{{"Id": "ep-1", "Name": "t", "Path": "/elsewhere/a.mkv", "SeriesId": "series-1", "IndexNumber": 1, "ParentIndexNumber": 1}}
	fake.seasons = []map[string]any{{"Id": "season-1", "Name": "s", "IndexNumber": 1}}

	svc := newService(t, fake, afero.NewMemMapFs())
	require.NoError(t, svc.Sync(context.Background(), Update{Show: "Show", Path: "/elsewhere/a.mkv", Season: 1, Episode: 1, Title: "t"}))
	assert.Equal(t, "lib-last", fake.refreshes[0])
}

func TestNewClientRequiresCredentials(t *testing.T) {
	_, err := NewClient("", "key", nil)
	assert.ErrorIs(t, err, services.ErrConfiguration)
	_, err = NewClient("http://jellyfin:8096", " ", nil)
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestNewConfiguredService(t *testing.T) {
	cfg := config.Default()
	_, isNoop := NewConfiguredService(&cfg, nil).(noopService)
	assert.True(t, isNoop)

	cfg.Jellyfin.Enabled = true
	cfg.Jellyfin.URL = "http://jellyfin:8096"
	cfg.Jellyfin.APIKey = "secret"
	_, isHTTP := NewConfiguredService(&cfg, nil).(*httpService)
	assert.True(t, isHTTP)

	noop := NewNoopService()
	assert.NoError(t, noop.Sync(context.Background(), Update{}))
	libs, err := noop.Libraries(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, libs)
}

func TestLibraries(t *testing.T) {
	svc := newService(t, newFakeServer(t), afero.NewMemMapFs())
	libs, err := svc.Libraries(context.Background())
	require.NoError(t, err)
	require.Len(t, libs, 2)
	assert.Equal(t, "Sports", libs[1].Name)
	assert.Equal(t, []string{"/srv/media/Sports"}, libs[1].Locations)
}
