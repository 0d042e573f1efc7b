package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/redg/internal/config"
)

const (
	counterSpecs = "testdata/specs/counter"
	driftSpecs   = "testdata/specs/drift"
	lintSpecs    = "testdata/specs/lint"
	brokenSpecs  = "testdata/specs/broken"
)

// testConfig points the journal at a fresh temp database.
func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DB:     filepath.Join(t.TempDir(), "redg.db"),
		Format: "text",
	}
}

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand(cfg)
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// decodeResponse parses a JSON envelope, decoding its data into data.
func decodeResponse(t *testing.T, out string, data any) CLIResponse {
	t.Helper()
	var raw struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
		Error  *CLIError       `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &raw), "output: %s", out)
	if data != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, data))
	}
	return CLIResponse{Status: raw.Status, Data: data, Error: raw.Error}
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand(config.Config{Format: "text"})
	require.NotNil(t, cmd)
	assert.Equal(t, "redg", cmd.Use)
	assert.Contains(t, cmd.Long, "journaled")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(config.Config{Format: "text"})

	for _, name := range []string{"validate", "dispatch", "replay", "trace", "test"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(config.Config{Format: "text"})

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)
	assert.Equal(t, "false", verbose.DefValue)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

func TestFlagDefaultsFromConfig(t *testing.T) {
	cmd := NewRootCommand(config.Config{
		DB:      "/var/lib/redg/journal.db",
		Format:  "json",
		Verbose: true,
		Session: "s-1",
	})

	assert.Equal(t, "json", cmd.PersistentFlags().Lookup("format").DefValue)
	assert.Equal(t, "true", cmd.PersistentFlags().Lookup("verbose").DefValue)

	for _, name := range []string{"dispatch", "replay", "trace"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, "/var/lib/redg/journal.db", sub.Flags().Lookup("db").DefValue, name)
		assert.Equal(t, "s-1", sub.Flags().Lookup("session").DefValue, name)
	}
}

func TestInvalidFormat(t *testing.T) {
	out, err := execute(t, testConfig(t), "validate", counterSpecs, "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.True(t, IsReported(err))
	assert.Contains(t, out, "E_FORMAT")
	assert.Contains(t, out, `invalid format "yaml"`)
}

func TestNewLoggerLevels(t *testing.T) {
	buf := &bytes.Buffer{}

	quiet := newLogger(buf, false)
	quiet.Info("hidden")
	quiet.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	buf.Reset()
	loud := newLogger(buf, true)
	loud.Debug("details")
	assert.Contains(t, buf.String(), "details")
}
