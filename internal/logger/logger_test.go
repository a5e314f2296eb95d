package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()

	var lines []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		lines = append(lines, m)
	}
	return lines
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level Level
		want  []string
	}{
		{level: LevelDebug, want: []string{"debug", "info", "warn", "error"}},
		{level: LevelInfo, want: []string{"info", "warn", "error"}},
		{level: LevelWarn, want: []string{"warn", "error"}},
		{level: LevelError, want: []string{"error"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.level), func(t *testing.T) {
			var buf bytes.Buffer
			log := NewLogger(&buf, tt.level)

			log.Debug("e", "m", nil)
			log.Info("e", "m", nil)
			log.Warn("e", "m", nil)
			log.Error("e", "m", nil)

			var got []string
			for _, line := range decodeLines(t, &buf) {
				got = append(got, line["level"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_EventShape(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, LevelInfo).WithRunID("run-1")

	log.Info("policy_loaded", "Policy loaded", map[string]interface{}{"allowed": 2})

	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)

	line := lines[0]
	assert.Equal(t, "info", line["level"])
	assert.Equal(t, "policy_loaded", line["event"])
	assert.Equal(t, "Policy loaded", line["message"])
	assert.Equal(t, "run-1", line["run_id"])
	assert.Equal(t, map[string]interface{}{"allowed": float64(2)}, line["data"])
	assert.NotEmpty(t, line["ts"])
}

func TestLogger_LogLicenseCheck(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, LevelInfo).LogLicenseCheck("django", "BSD", "allow", "")
	assert.Empty(t, buf.String())

	NewLogger(&buf, LevelDebug).LogLicenseCheck("django", "BSD", "allow", `matches allowed pattern "BSD.*"`)
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "license_check", lines[0]["event"])
	assert.Equal(t, "django", lines[0]["name"])
	assert.Equal(t, "BSD", lines[0]["license"])
	assert.Equal(t, "allow", lines[0]["decision"])
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, level)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Error("e", "discarded", nil)
	assert.NoError(t, log.Sync())
}
