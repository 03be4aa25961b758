package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jellysports/internal/config"
	"jellysports/internal/logging"
	"jellysports/internal/services"
)

func fileLoggerOptions(t *testing.T, format, level string) (*logging.Options, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), format+"-"+level+".log")
	return &logging.Options{Format: format, Level: level, OutputPaths: []string{path}}, path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestNewFromConfigConsole(t *testing.T) {
	cfg := config.Default()
	cfg.Sportsdb.APIKey = "test"
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	require.NoError(t, err)
	require.NotNil(t, logger)
	logger.Info("written to console and file")

	out := readLog(t, filepath.Join(cfg.Paths.LogDir, "jellysports.log"))
	assert.Contains(t, out, `"msg":"written to console and file"`)
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	_, err := logging.New(logging.Options{Format: "xml"})
	assert.Error(t, err)
}

func TestConsoleLoggerOmitsSourceForInfo(t *testing.T) {
	opts, path := fileLoggerOptions(t, "console", "info")
	logger, err := logging.New(*opts)
	require.NoError(t, err)

	logger.Info("message without source")

	assert.NotContains(t, readLog(t, path), ".go:")
}

func TestConsoleLoggerIncludesSourceForDebug(t *testing.T) {
	opts, path := fileLoggerOptions(t, "console", "debug")
	logger, err := logging.New(*opts)
	require.NoError(t, err)

	logger.Debug("message with source")

	assert.Contains(t, readLog(t, path), "logger_test.go:")
}

func TestConsoleLoggerRendersSubjectAndFields(t *testing.T) {
	opts, path := fileLoggerOptions(t, "console", "info")
	logger, err := logging.New(*opts)
	require.NoError(t, err)

	ctx := services.WithFile(context.Background(), "/media/sports/Formula 1/f1.2023.round05.miami.race.mkv")
	ctx = services.WithStage(ctx, "resolve")
	logger = logging.WithContext(ctx, logging.NewComponentLogger(logger, "processor"))
	logger.Info("metadata resolved",
		logging.Args(append(logging.DecisionAttrs("catalog_event", "matched", "exact venue"),
			logging.String("show", "Formula 1 (2023)"),
			logging.Int("episode", 401),
		)...)...)

	out := readLog(t, path)
	for _, want := range []string{
		"INFO [processor] f1.2023.round05.miami.race.mkv (resolve) – metadata resolved",
		"    - Decision: catalog_event",
		"    - Result: matched",
		"    - Reason: exact venue",
		"    - Show: Formula 1 (2023)",
		"    - Episode: 401",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Correlation", "context fields stay in the header")
	assert.NotContains(t, out, "- Stage:")
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	opts, path := fileLoggerOptions(t, "json", "info")
	logger, err := logging.New(*opts)
	require.NoError(t, err)

	ctx := services.WithRequestID(context.Background(), "req-42")
	ctx = services.WithDepth(ctx, 2)
	logging.WithContext(ctx, logger).Info("json entry")

	out := readLog(t, path)
	assert.Contains(t, out, `"correlation_id":"req-42"`)
	assert.Contains(t, out, `"depth":"2"`)
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"ts":"`)
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	opts, path := fileLoggerOptions(t, "json", "info")
	logger, err := logging.New(*opts)
	require.NoError(t, err)

	logging.WarnWithContext(logger, "catalog lookup slow", "catalog_slow",
		logging.String(logging.FieldImpact, "resolution delayed"))

	out := readLog(t, path)
	assert.Contains(t, out, `"event_type":"catalog_slow"`)
	assert.Contains(t, out, `"error_hint":"run jellysports status"`)
	assert.Contains(t, out, `"impact":"resolution delayed"`, "caller impact is kept")
}
