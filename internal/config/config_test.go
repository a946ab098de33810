package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "data", cfg.Relations.OutDir)
	assert.Equal(t, 64, cfg.Relations.BlockSize)
	assert.Equal(t, 20, cfg.Relations.Shards)
	assert.Equal(t, 1, cfg.Relations.Workers)
	assert.Equal(t, "SAL_CODE21", cfg.Relations.CodeField)
	assert.Equal(t, "SAL_NAME21", cfg.Relations.NameField)
	assert.Equal(t, "STE_CODE21", cfg.Relations.StateField)
	assert.Equal(t, "data/directional_relations_wiki_vs_calculated.csv", cfg.Combine.Output)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
relations:
  shapefile: /data/SAL_2021_AUST_GDA2020.shp
  block_size: 128
  shards: 40
  workers: 8
combine:
  wiki_table: /data/df_wiki_extend.csv
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/SAL_2021_AUST_GDA2020.shp", cfg.Relations.Shapefile)
	assert.Equal(t, 128, cfg.Relations.BlockSize)
	assert.Equal(t, 40, cfg.Relations.Shards)
	assert.Equal(t, 8, cfg.Relations.Workers)
	assert.Equal(t, "/data/df_wiki_extend.csv", cfg.Combine.WikiTable)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, "SAL_NAME21", cfg.Relations.NameField)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NotNil(t, zap.L())

	assert.Error(t, InitLogger(LogConfig{Level: "nope", Format: "json"}))
}
