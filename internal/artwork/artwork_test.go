package artwork

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	images map[string][]byte
	calls  []string
}

func (f *fakeFetcher) FetchArtwork(_ context.Context, url string) ([]byte, error) {
	f.calls = append(f.calls, url)
	data, ok := f.images[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return data, nil
}

const video = "/lib/Formula 1/Season 05/Monaco Grand Prix.mkv"

func TestPlan(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := Plan(fs, video, 2, 5)
	assert.Equal(t, Set{
		ShowPoster:   "/lib/Formula 1/show.jpg",
		SeasonPoster: "/lib/Formula 1/Season 05/season05.jpg",
		SeasonBanner: "/lib/Formula 1/Season 05/season05-banner.jpg",
		SeasonSquare: "/lib/Formula 1/Season 05/season05-square.jpg",
		Thumb:        "/lib/Formula 1/Season 05/Monaco Grand Prix.jpg",
	}, plan)

	assert.Equal(t, "/lib/Formula 1/Season 05/show.jpg", Plan(fs, video, 1, 5).ShowPoster)

	require.NoError(t, afero.WriteFile(fs, "/lib/Formula 1/Season 05/show.jpg", []byte("x"), 0o644))
	assert.Equal(t, "/lib/Formula 1/Season 05/show.jpg", Plan(fs, video, 2, 5).ShowPoster)
}

func TestApplyFetchesOnlyMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := Plan(fs, video, 2, 5)
	require.NoError(t, afero.WriteFile(fs, plan.SeasonPoster, []byte("operator"), 0o644))

	fetcher := &fakeFetcher{images: map[string][]byte{
		"https://img/show.jpg":   []byte("show"),
		"https://img/poster.jpg": []byte("poster"),
		"https://img/thumb.jpg":  []byte("thumb"),
	}}
	sink := NewSink(fs, fetcher, nil)
	got, written := sink.Apply(context.Background(), plan, Set{
		ShowPoster:   "https://img/show.jpg",
		SeasonPoster: "https://img/poster.jpg",
		SeasonBanner: "https://img/banner.jpg",
		Thumb:        "https://img/thumb.jpg",
	})

	assert.Equal(t, 2, written)
	assert.ElementsMatch(t, []string{"https://img/show.jpg", "https://img/banner.jpg", "https://img/thumb.jpg"}, fetcher.calls)

	data, err := afero.ReadFile(fs, plan.SeasonPoster)
	require.NoError(t, err)
	assert.Equal(t, "operator", string(data))

	data, err = afero.ReadFile(fs, plan.Thumb)
	require.NoError(t, err)
	assert.Equal(t, "thumb", string(data))

	assert.Equal(t, Set{
		ShowPoster:   plan.ShowPoster,
		SeasonPoster: plan.SeasonPoster,
		Thumb:        plan.Thumb,
	}, got)
}

func TestApplyWithoutSources(t *testing.T) {
	fs := afero.NewMemMapFs()
	fetcher := &fakeFetcher{}
	got, written := NewSink(fs, fetcher, nil).Apply(context.Background(), Plan(fs, video, 1, 0), Set{})
	assert.Zero(t, written)
	assert.Empty(t, fetcher.calls)
	assert.Equal(t, Set{}, got)
}

func TestPresent(t *testing.T) {
	fs := afero.NewMemMapFs()
	plan := Plan(fs, video, 1, 3)
	require.NoError(t, afero.WriteFile(fs, plan.Thumb, []byte("t"), 0o644))
	assert.Equal(t, Set{Thumb: plan.Thumb}, Present(fs, plan))
}
