package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"REDG_DB", "REDG_FORMAT", "REDG_VERBOSE", "REDG_SESSION"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{DB: "redg.db", Format: "text"}, cfg)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("REDG_DB", "/tmp/journal.db")
	t.Setenv("REDG_FORMAT", "json")
	t.Setenv("REDG_VERBOSE", "true")
	t.Setenv("REDG_SESSION", "s-1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Config{DB: "/tmp/journal.db", Format: "json", Verbose: true, Session: "s-1"}, cfg)
}

func TestLoad_InvalidBool(t *testing.T) {
	t.Setenv("REDG_VERBOSE", "maybe")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestLoad_InvalidFormat(t *testing.T) {
	t.Setenv("REDG_FORMAT", "yaml")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "yaml"`)
}

func TestValidFormat(t *testing.T) {
	assert.True(t, ValidFormat("text"))
	assert.True(t, ValidFormat("json"))
	assert.False(t, ValidFormat(""))
	assert.False(t, ValidFormat("xml"))
}
