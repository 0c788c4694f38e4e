package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/planmesh/core"
)

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, core.DefaultConfig(), cfg)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
max_retries: 5
tool_timeout: 10s
degrade_policy: substitute
`))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.ToolTimeout)
	assert.Equal(t, core.DegradeSubstitute, cfg.DegradePolicy)
	// Untouched keys keep their defaults.
	assert.Equal(t, core.DefaultConfig().MaxLoopIterations, cfg.MaxLoopIterations)
	assert.Equal(t, core.DefaultConfig().MemoryWindow, cfg.MemoryWindow)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, err := Parse([]byte("max_retries: -1"))
	assert.Error(t, err)

	_, err = Parse([]byte("tool_timeout: soonish"))
	assert.Error(t, err)

	_, err = Parse([]byte("degrade_policy: escalate"))
	assert.Error(t, err)

	_, err = Parse([]byte("max_retries: [not, a, number]"))
	assert.Error(t, err)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "planmesh.yaml")
	require.NoError(t, os.WriteFile(path, []byte("memory_window: 9\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.MemoryWindow)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
