package logging

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeeHandlerWritesToAllEnabledHandlers(t *testing.T) {
	var infoBuf, debugBuf bytes.Buffer
	infoLevel := new(slog.LevelVar)
	infoLevel.Set(slog.LevelInfo)
	debugLevel := new(slog.LevelVar)
	debugLevel.Set(slog.LevelDebug)

	logger := slog.New(newTeeHandler(
		newJSONHandler(&infoBuf, infoLevel, false),
		newJSONHandler(&debugBuf, debugLevel, false),
	)).With(slog.String(FieldComponent, "watcher"))

	logger.Debug("debug only")
	logger.Info("both", slog.Group("match", slog.String("ts", "kept")))

	assert.NotContains(t, infoBuf.String(), "debug only")
	assert.Contains(t, debugBuf.String(), "debug only")
	assert.Contains(t, infoBuf.String(), "both")
	assert.Contains(t, debugBuf.String(), "both")
	assert.Contains(t, infoBuf.String(), `"component":"watcher"`)
	assert.Contains(t, infoBuf.String(), `"match":{"ts":"kept"}`, "grouped attrs are not rewritten")
}

func TestTeeHandlerCollapsesSingleHandler(t *testing.T) {
	h := newJSONHandler(&bytes.Buffer{}, new(slog.LevelVar), false)

	assert.Equal(t, h, newTeeHandler(nil, h))
	assert.IsType(t, discardHandler{}, newTeeHandler())
	assert.False(t, NewNop().Enabled(context.Background(), slog.LevelError))
}

func TestValueStringQuoting(t *testing.T) {
	tests := []struct {
		value slog.Value
		quote bool
		want  string
	}{
		{slog.StringValue("Miami Race"), true, `"Miami Race"`},
		{slog.StringValue("Miami Race"), false, "Miami Race"},
		{slog.StringValue(""), true, `""`},
		{slog.IntValue(411), true, "411"},
		{slog.Float64Value(0.9), true, "0.9"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, valueString(tc.value, tc.quote))
	}
}

func TestFloat64RoundsScores(t *testing.T) {
	assert.InDelta(t, 0.9123, Float64("score", 0.912345678).Value.Float64(), 1e-12)
}
