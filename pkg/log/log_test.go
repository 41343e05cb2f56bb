package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    LogLevel
		wantErr bool
	}{
		{in: "error", want: LogLevelError},
		{in: "warn", want: LogLevelWarn},
		{in: "INFO", want: LogLevelInfo},
		{in: " debug ", want: LogLevelDebug},
		{in: "trace", want: LogLevelTrace},
		{in: "verbose", want: LogLevelError, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(buf, "", 0, LogLevelWarn)

	logger.Info("dropped %d", 1)
	logger.Warn("kept %d", 2)
	logger.Error("kept %d", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	entry := map[string]string{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept 2", entry["msg"])
}

func TestSetDefaultLogger(t *testing.T) {
	previous := getDefaultLogger()
	defer SetDefaultLogger(previous)

	buf := &bytes.Buffer{}
	SetDefaultLogger(New(buf, "", 0, LogLevelDebug))
	Debug("food at %d,%d", 4, 7)

	assert.Contains(t, buf.String(), `"msg":"food at 4,7"`)
}
