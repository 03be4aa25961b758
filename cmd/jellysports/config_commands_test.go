package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Library roots: 1")

	target := filepath.Join(t.TempDir(), "nested", "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote sample configuration")
	assert.FileExists(t, target)

	_, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	assert.Error(t, err, "init should refuse an existing file")
	_, _, err = runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, "")
	assert.NoError(t, err)
}

func TestConfigValidateReportsMissingKey(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "nokey.toml")
	require.NoError(t, os.WriteFile(path, []byte("[paths]\ncache_dir = \""+env.cacheDir+"\"\n"), 0o644))

	_, _, err := runCLI(t, []string{"config", "validate"}, path)
	assert.Error(t, err, "validation should fail without an api key")
}
