package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePathsHomeOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HAVEN_HOME", dir)

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, dir, p.Base)
	assert.Equal(t, filepath.Join(dir, "config.yaml"), p.Config)
	assert.Equal(t, filepath.Join(dir, "data"), p.Data)
}

func TestResolvePathsDefault(t *testing.T) {
	t.Setenv("HAVEN_HOME", "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory in test environment")
	}

	p, err := ResolvePaths()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".haven"), p.Base)
}

func TestEnsurePaths(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HAVEN_HOME", filepath.Join(dir, "nested"))

	p, err := ResolvePaths()
	require.NoError(t, err)
	require.NoError(t, EnsurePaths(p))

	for _, d := range []string{p.Base, p.Data, p.Logs} {
		info, err := os.Stat(d)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
