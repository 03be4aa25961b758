package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type cliTestEnv struct {
	baseDir    string
	libraryDir string
	cacheDir   string
	configPath string
	catalog    *httptest.Server
}

// setupCLITestEnv writes a config pointing at temp directories and a catalog
// server that knows no leagues or events.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("TSDB_API_KEY", "")
	t.Setenv("JELLYFIN_API_KEY", "")

	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(catalog.Close)

	env := &cliTestEnv{
		baseDir:    base,
		libraryDir: filepath.Join(base, "library"),
		cacheDir:   filepath.Join(base, "cache"),
		configPath: filepath.Join(base, "config.toml"),
		catalog:    catalog,
	}
	require.NoError(t, os.MkdirAll(env.libraryDir, 0o755))
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
library_roots = [%q]
cache_dir = %q
log_dir = %q

[sportsdb]
api_key = "test-key"
base_url = %q
requests_per_minute = 6000
retry_attempts = 1

[logging]
level = "error"
`, env.libraryDir, env.cacheDir, filepath.Join(env.baseDir, "logs"), env.catalog.URL)
	require.NoError(t, os.WriteFile(env.configPath, []byte(content), 0o644))
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
