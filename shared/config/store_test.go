package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReturnsDefaultsWhenMissing(t *testing.T) {
	store, err := NewStore(afero.NewMemMapFs(), "/home/dev/.relay")
	require.NoError(t, err)

	cfg, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, Default(), cfg)
	assert.Equal(t, uint64(1000), cfg.Pipeline.RetryDelayMS)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	store, err := NewStore(fs, "/home/dev/.relay")
	require.NoError(t, err)

	cfg := Default()
	cfg.Pipeline.ContinueOnError = true
	cfg.Pipeline.MaxRetries = 3
	cfg.Pipeline.TimeoutSeconds = 30
	cfg.Log.Level = "debug"

	require.NoError(t, store.Save(cfg))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	base := "/home/dev/.relay"
	store, err := NewStore(fs, base)
	require.NoError(t, err)

	partial := []byte("pipeline:\n  max_retries: 2\n")
	require.NoError(t, afero.WriteFile(fs, filepath.Join(base, "config.yaml"), partial, 0o600))

	cfg, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, uint(2), cfg.Pipeline.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level, "unset fields keep defaults")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	fs := afero.NewMemMapFs()
	base := "/home/dev/.relay"
	store, err := NewStore(fs, base)
	require.NoError(t, err)

	require.NoError(t, afero.WriteFile(fs, filepath.Join(base, "config.yaml"), []byte("{not yaml"), 0o600))

	_, err = store.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}
