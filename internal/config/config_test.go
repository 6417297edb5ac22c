package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_HasCacheEnabledAndTextOutput(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "text", cfg.Output.Format)
	assert.NotEmpty(t, cfg.Cache.Dir)
}

func TestLoadFile_JSONOverridesDefaultsButKeepsUnsetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowgraph.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"entry_points": {"names": ["main", "handler"]},
		"output": {"format": "json"}
	}`), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"main", "handler"}, cfg.EntryPoints.Names)
	assert.Equal(t, "json", cfg.Output.Format)
	// Cache block was never mentioned in the file; defaults survive.
	assert.True(t, cfg.Cache.Enabled)
}

func TestLoadFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entry_points:\n  names: [\"main\"]\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, cfg.EntryPoints.Names)
}

func TestLoad_SearchesParentDirectories(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "flowgraph.json"), []byte(`{"output": {"format": "json"}}`), 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, path, err := Load(nested)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "flowgraph.json"), path)
	assert.Equal(t, "json", cfg.Output.Format)
}

func TestLoad_NoFileAnywhereReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, path, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PicksHigherPriorityFileNameFirst(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".flowgraphrc"), []byte(`{"output": {"format": "json"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flowgraph.json"), []byte(`{"output": {"format": "text"}}`), 0o644))

	_, path, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "flowgraph.json", filepath.Base(path))
}

func TestPruneOptions_CarriesEntryPointNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EntryPoints.Names = []string{"main"}
	opts := cfg.PruneOptions()
	assert.Equal(t, []string{"main"}, opts.EntryPointNames)
}
