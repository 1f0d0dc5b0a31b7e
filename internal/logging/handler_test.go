package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-catalog/internal/logging"
)

func TestSetupJSONAddsServiceAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("movie-catalog", "1.2.3", "json", slog.LevelInfo, &buf)

	logger.With("request_id", "abc").Info("listening", "addr", ":8080")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "listening", entry["msg"])
	assert.Equal(t, "movie-catalog", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
	assert.Equal(t, "abc", entry["request_id"])
	assert.Equal(t, ":8080", entry["addr"])
}

func TestSetupTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("movie-catalog", "dev", "text", slog.LevelInfo, &buf)

	logger.Warn("row skipped", "row", 4)

	line := buf.String()
	assert.True(t, strings.Contains(line, "level=WARN"), line)
	assert.True(t, strings.Contains(line, "service=movie-catalog"), line)
	assert.True(t, strings.Contains(line, "row=4"), line)
}

func TestSetupHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.Setup("movie-catalog", "dev", "text", slog.LevelWarn, &buf)

	logger.Debug("noisy")
	logger.Info("chatty")
	logger.Warn("kept")

	out := buf.String()
	assert.NotContains(t, out, "noisy")
	assert.NotContains(t, out, "chatty")
	assert.Contains(t, out, "msg=kept")

	buf.Reset()
	logging.Setup("movie-catalog", "dev", "text", slog.LevelDebug, &buf).Debug("noisy")
	assert.Contains(t, buf.String(), "msg=noisy")
}
