package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected zerolog.Level
	}{
		{name: "trace", input: "trace", expected: zerolog.TraceLevel},
		{name: "debug upper case", input: "DEBUG", expected: zerolog.DebugLevel},
		{name: "empty is info", input: "", expected: zerolog.InfoLevel},
		{name: "warning alias", input: "warning", expected: zerolog.WarnLevel},
		{name: "error", input: "error", expected: zerolog.ErrorLevel},
		{name: "unknown is info", input: "verbose", expected: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.input))
		})
	}
}

func TestInit_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	closer, err := Init(Config{Output: "file", Level: "info", File: path})
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = Init(Config{Output: "stderr"})
	})

	zlog.Info().Msg("hello from the test")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"hello from the test"`)
	assert.Contains(t, string(data), `"level":"info"`)
}

func TestInit_FileOutputRequiresPath(t *testing.T) {
	_, err := Init(Config{Output: "file"})
	assert.Error(t, err)
}
