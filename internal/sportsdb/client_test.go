package sportsdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellysports/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := New("secret", server.URL+"/api/v2/json",
		WithRequestsPerMinute(0),
		WithRetry(3, time.Millisecond),
	)
	require.NoError(t, err)
	return client
}

func TestNewRequiresKeyAndURL(t *testing.T) {
	_, err := New(" ", "http://example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrConfiguration)

	_, err = New("key", "")
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestLookupEventSendsKeyAndParsesRound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "/api/v2/json/lookup/event/1234", r.URL.Path)
		_, _ = w.Write([]byte(`{"lookup":[{"idEvent":"1234","idLeague":"4370","strEvent":"Monaco Grand Prix","intRound":"8","dateEvent":"2024-05-26"}]}`))
	}))

	event, err := client.LookupEvent(context.Background(), "1234")
	require.NoError(t, err)
	assert.Equal(t, "Monaco Grand Prix", event.Name)
	assert.Equal(t, Round(8), event.Round)
	assert.Equal(t, "4370", event.LeagueID)
}

func TestLookupEventEmptyIsNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"Message":"No data found"}`))
	}))

	_, err := client.LookupEvent(context.Background(), "1")
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestRateLimitedRequestIsRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"list":[{"strSeason":"2023-2024"},{"strSeason":"2024-2025"}]}`))
	}))

	seasons, err := client.ListSeasons(context.Background(), "4391")
	require.NoError(t, err)
	assert.Len(t, seasons, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestRateLimitGivesUpAfterAttempts(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	_, err := client.ListSeasons(context.Background(), "4391")
	require.Error(t, err)
	assert.ErrorIs(t, err, services.ErrRateLimited)
	assert.Equal(t, int32(3), calls.Load())
}

func TestServerErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := client.AllSports(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestMalformedJSONIsAnError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"all": [`))
	}))

	_, err := client.AllLeagues(context.Background())
	assert.Error(t, err)
}

func TestSearchLeaguesUsesUnderscores(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/json/search/league/English_Premier_League", r.URL.Path)
		_, _ = w.Write([]byte(`{"search":[{"idLeague":"4328","strLeague":"English Premier League"}]}`))
	}))

	leagues, err := client.SearchLeagues(context.Background(), "English Premier League")
	require.NoError(t, err)
	require.Len(t, leagues, 1)
	assert.Equal(t, "4328", leagues[0].ID)
}

func TestSeasonEventEndpoints(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/json/filter/events/4391/2024", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"filter":[{"idEvent":"1","strHomeTeam":"Detroit Lions","strAwayTeam":"New York Giants","intRound":3}]}`))
	})
	mux.HandleFunc("/api/v2/json/schedule/league/4370/2024", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"schedule":[{"idEvent":"2","strEvent":"Monaco Grand Prix","intRound":null}]}`))
	})
	client := newTestClient(t, mux)

	games, err := client.FilterEvents(context.Background(), "4391", "2024")
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, Round(3), games[0].Round)

	events, err := client.ScheduleEvents(context.Background(), "4370", "2024")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, Round(0), events[0].Round)
}

func TestFetchArtwork(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images/poster.jpg", r.URL.Path)
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff})
	}))

	data, err := client.FetchArtwork(context.Background(), client.baseURL[:len(client.baseURL)-len("/api/v2/json")]+"/images/poster.jpg")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, data)

	_, err = client.FetchArtwork(context.Background(), "")
	assert.Error(t, err)
}

func TestRoundDecoding(t *testing.T) {
	cases := map[string]Round{
		`{"intRound":5}`:    5,
		`{"intRound":"12"}`: 12,
		`{"intRound":""}`:   0,
		`{"intRound":null}`: 0,
		`{}`:                0,
	}
	for input, want := range cases {
		var event Event
		require.NoError(t, json.Unmarshal([]byte(input), &event), input)
		assert.Equal(t, want, event.Round, input)
	}

	var event Event
	assert.Error(t, json.Unmarshal([]byte(`{"intRound":"final"}`), &event))
}

func TestLeagueNames(t *testing.T) {
	league := League{Name: "Formula 1", Alternate: "F1, Formula One ,"}
	assert.Equal(t, []string{"Formula 1", "F1", "Formula One"}, league.Names())
}
