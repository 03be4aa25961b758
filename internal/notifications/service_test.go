package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellysports/internal/config"
	"jellysports/internal/notifications"
)

type captured struct {
	title    string
	tags     string
	priority string
	body     string
}

func newNtfyServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var got []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = append(got, captured{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func configFor(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	return &cfg
}

func TestNewServiceReturnsNoopWhenTopicMissing(t *testing.T) {
	svc := notifications.NewService(configFor(""))
	assert.NoError(t, svc.NotifyRejected(context.Background(), "/lib/file.mkv", "missing show"))
	assert.NoError(t, notifications.NewService(nil).TestNotification(context.Background()))
}

func TestNtfyServiceFormatsPayloads(t *testing.T) {
	srv, got := newNtfyServer(t, http.StatusOK)
	svc := notifications.NewService(configFor(srv.URL))
	ctx := context.Background()

	require.NoError(t, svc.NotifyRejected(ctx, "/lib/Misc/holiday video.mkv", "missing show, title"))
	require.NoError(t, svc.NotifyUnmatched(ctx, "/lib/Ncs/race.mkv", "Ncs (2024)", "3: Watkins Glen - Race"))
	require.NoError(t, svc.NotifyError(ctx, errors.New("disk full"), "nfo write"))
	require.NoError(t, svc.TestNotification(ctx))
	require.Len(t, *got, 4)

	rejected := (*got)[0]
	assert.Equal(t, "jellysports - Needs Review", rejected.title)
	assert.Equal(t, "high", rejected.priority)
	assert.Contains(t, rejected.body, "holiday video.mkv")
	assert.Contains(t, rejected.body, "missing show, title")

	unmatched := (*got)[1]
	assert.Equal(t, "jellysports,unmatched", unmatched.tags)
	assert.Empty(t, unmatched.priority)
	assert.Contains(t, unmatched.body, "Ncs (2024) / 3: Watkins Glen - Race")

	assert.Equal(t, "Error with nfo write: disk full", (*got)[2].body)
	assert.Equal(t, "low", (*got)[3].priority)
}

func TestNtfyServiceSkipsUnmatchedWhenDisabled(t *testing.T) {
	srv, got := newNtfyServer(t, http.StatusOK)
	cfg := configFor(srv.URL)
	cfg.Notifications.NotifyUnmatched = false

	require.NoError(t, notifications.NewService(cfg).NotifyUnmatched(context.Background(), "/lib/a.mkv", "Show", "Title"))
	assert.Empty(t, *got)
}

func TestNtfyServiceReportsHTTPErrors(t *testing.T) {
	srv, _ := newNtfyServer(t, http.StatusForbidden)
	err := notifications.NewService(configFor(srv.URL)).TestNotification(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ntfy returned 403")
}
