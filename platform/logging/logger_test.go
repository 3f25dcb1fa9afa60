package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_JSONAddsServiceAndEnv(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Config{
		ServiceName: "yamoney",
		Env:         "docker",
		Output:      &buf,
	})
	require.NoError(t, err)

	logger.Info("callback handled")
	Sync(logger)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "callback handled", entry["msg"])
	require.Equal(t, "yamoney", entry["service"])
	require.Equal(t, "docker", entry["env"])
	require.Equal(t, "info", entry["level"])
}

func TestNew_LevelFiltersDebug(t *testing.T) {
	var buf bytes.Buffer

	logger, err := New(Config{ServiceName: "yamoney", Env: "docker", Level: "warn", Output: &buf})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("hidden too")
	require.Zero(t, buf.Len())

	logger.Warn("visible")
	require.Contains(t, buf.String(), "visible")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log level")

	_, err = New(Config{Format: "xml"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid log format")
}
