package fileutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFileAtomic(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := "/library/Formula 1/tvshow.nfo"

	require.NoError(t, WriteFileAtomic(fs, path, []byte("first"), 0o644))
	require.NoError(t, WriteFileAtomic(fs, path, []byte("second"), 0o644))

	got, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))

	entries, err := afero.ReadDir(fs, filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should be cleaned up")
}

func TestWriteFileAtomicOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lcache.json")
	require.NoError(t, WriteFileAtomic(afero.NewOsFs(), path, []byte("{}"), 0o600))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestExistsAndIsDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.False(t, Exists(fs, "/a/show.jpg"))

	require.NoError(t, afero.WriteFile(fs, "/a/show.jpg", []byte("x"), 0o644))
	assert.True(t, Exists(fs, "/a/show.jpg"))
	assert.True(t, IsDir(fs, "/a"))
	assert.False(t, IsDir(fs, "/a/show.jpg"))
}

func TestShowLevelPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	season := "/lib/Formula 1/Season 08"

	assert.Equal(t, season+"/show.jpg", ShowLevelPath(fs, season, 1, "show.jpg"), "depth 1")
	assert.Equal(t, "/lib/Formula 1/show.jpg", ShowLevelPath(fs, season, 2, "show.jpg"), "depth 2 default")

	require.NoError(t, afero.WriteFile(fs, season+"/show.jpg", []byte("x"), 0o644))
	assert.Equal(t, season+"/show.jpg", ShowLevelPath(fs, season, 2, "show.jpg"), "depth 2 local only")

	require.NoError(t, afero.WriteFile(fs, "/lib/Formula 1/show.jpg", []byte("x"), 0o644))
	assert.Equal(t, "/lib/Formula 1/show.jpg", ShowLevelPath(fs, season, 2, "show.jpg"), "depth 2 parent wins")
}
