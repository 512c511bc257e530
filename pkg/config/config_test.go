package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bisegni/rowtree/pkg/shape"
)

const sample = `
[default]
separator = _
log_level = info

[wide]
pretty = true
separator = .
key_suffix = idx
log_level = debug

[broken]
pretty = maybe
`

func TestLoadConfigString(t *testing.T) {
	cfg := Default()
	require.NoError(t, LoadConfigString(sample, "wide", &cfg))

	assert.True(t, cfg.Pretty)
	assert.Equal(t, shape.Naming{Separator: ".", KeySuffix: "idx"}, cfg.Mapping())
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigKeepsDefaults(t *testing.T) {
	cfg := Default()
	require.NoError(t, LoadConfigString(sample, DefaultConfigProfile, &cfg))

	assert.False(t, cfg.Pretty)
	assert.Equal(t, "key", cfg.KeySuffix)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadConfigErrors(t *testing.T) {
	cfg := Default()
	assert.ErrorContains(t, LoadConfigString(sample, "missing", &cfg), "config profile 'missing' not found")
	assert.Error(t, LoadConfigString(sample, "broken", &cfg))
	assert.Error(t, LoadConfigString("[default]\nlog_level = loud\n", "default", &cfg))
}

func TestLoadConfigFile(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(fname, []byte(sample), 0o600))

	cfg := Default()
	require.NoError(t, LoadConfigFile(fname, "wide", &cfg))
	assert.Equal(t, ".", cfg.Separator)

	assert.Error(t, LoadConfigFile(filepath.Join(t.TempDir(), "nope"), "default", &cfg))
}
