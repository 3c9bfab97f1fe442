package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-cutout/internal/logging"
)

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, closeFn, err := logging.New(logging.Options{Level: "info", Writer: &buf})
	require.NoError(t, err)
	defer closeFn()

	logging.Component(logger, "batch").Info("item failed",
		"path", "A/1.jpg",
		"stage", "crop",
		"error", errors.New("crop box exceeds image bounds"))
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, " INFO batch: item failed ")
	assert.Contains(t, out, "path=A/1.jpg")
	assert.Contains(t, out, "stage=crop")
	assert.Contains(t, out, `error="crop box exceeds image bounds"`)
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, ".go:", "no source at info level")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestConsoleHidesRunIDAndShowsGroups(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Writer: &buf})
	require.NoError(t, err)

	tagged, id := logging.WithRun(logger)
	require.NotEmpty(t, id)
	tagged.WithGroup("crop").Info("box", "w", 1120, "h", 1079)

	out := buf.String()
	assert.NotContains(t, out, id)
	assert.Contains(t, out, "crop.w=1120")
	assert.Contains(t, out, "crop.h=1079")
}

func TestDebugIncludesSource(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "DEBUG", Writer: &buf})
	require.NoError(t, err)

	logger.Debug("details")
	assert.Contains(t, buf.String(), "logger_test.go:")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Level: "warn", Writer: &buf})
	require.NoError(t, err)

	logger.Info("skipped")
	logger.Warn("accelerated matting unavailable", "backend", "http")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "warn", rec["level"])
	assert.Equal(t, "accelerated matting unavailable", rec["msg"])
	assert.Equal(t, "http", rec["backend"])
	assert.Contains(t, rec, "ts")
}

func TestFileReceivesJSONCopy(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	logger, closeFn, err := logging.New(logging.Options{Writer: &buf, File: path})
	require.NoError(t, err)

	tagged, id := logging.WithRun(logger)
	tagged.Info("run complete", "succeeded", 3)
	require.NoError(t, closeFn())

	assert.Contains(t, buf.String(), "run complete")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var rec map[string]any
	require.NoError(t, json.Unmarshal(data, &rec))
	assert.Equal(t, id, rec["run_id"])
	assert.Equal(t, float64(3), rec["succeeded"])
}

func TestUnsupportedFormat(t *testing.T) {
	_, _, err := logging.New(logging.Options{Format: "xml"})
	assert.Error(t, err)
}

func TestRunIDsAreUnique(t *testing.T) {
	assert.NotEqual(t, logging.NewRunID(), logging.NewRunID())
}
