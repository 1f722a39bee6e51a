package events_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tabfm/tabfm/internal/events"
)

func TestJSONLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	logger.WithField("path", "/home").Info("Listed directory")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Listed directory", entry["msg"])
	assert.Equal(t, "/home", entry["path"])
	assert.NotEmpty(t, entry["time"])
}

func TestTextLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "text", &buf)

	logger.WithFields(map[string]interface{}{
		"tab_id": "t1",
		"path":   "/var",
	}).Warn("Listing failed, retrying")

	line := buf.String()
	assert.Contains(t, line, "[WARN]")
	assert.Contains(t, line, "Listing failed, retrying")
	// Fields print in sorted key order.
	assert.Less(t, strings.Index(line, "path=/var"), strings.Index(line, "tab_id=t1"))
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.WarnLevel, "json", &buf)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestDerivedLoggersDoNotShareFields(t *testing.T) {
	var buf bytes.Buffer
	base := events.NewTestLogger(events.DebugLevel, "json", &buf)

	derived := base.WithField("component", "fs_manager")
	base.Info("base")
	derived.Info("derived")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first, second map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))

	assert.NotContains(t, first, "component")
	assert.Equal(t, "fs_manager", second["component"])
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	logger.WithError(errors.New("disk gone")).Error("Save failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "disk gone", entry["error"])

	// Nil error adds nothing.
	buf.Reset()
	logger.WithError(nil).Info("fine")
	entry = map[string]interface{}{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotContains(t, entry, "error")
}
