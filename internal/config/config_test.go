package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Missing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
}

func TestLoad_YML(t *testing.T) {
	dir := t.TempDir()
	data := "catalogPath: rules.yml\nmaxExpansions: 500\ntimeout: 2s\nworkers: 3\nstorePath: db/plans\nverbose: true\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docplan.yml"), []byte(data), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{
		CatalogPath:   "rules.yml",
		MaxExpansions: 500,
		Timeout:       "2s",
		Workers:       3,
		StorePath:     "db/plans",
		Verbose:       true,
	}, cfg)

	d, err := cfg.ItemTimeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
}

func TestLoad_YAMLExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docplan.yaml"), []byte("workers: 2\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "docplan.yml"), []byte("workers: [\n"), 0o644))
	_, err := Load(dir)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "docplan.yml"), []byte("timeout: soon\n"), 0o644))
	_, err = Load(dir)
	assert.ErrorContains(t, err, `invalid timeout "soon"`)
}

func TestWithDefaults(t *testing.T) {
	cfg := ProjectConfig{}.WithDefaults()
	assert.Equal(t, DefaultMaxExpansions, cfg.MaxExpansions)
	assert.Equal(t, DefaultStorePath, cfg.StorePath)

	unbounded := ProjectConfig{MaxExpansions: -1}.WithDefaults()
	assert.Equal(t, -1, unbounded.MaxExpansions)

	set := ProjectConfig{MaxExpansions: 7, StorePath: "x"}.WithDefaults()
	assert.Equal(t, 7, set.MaxExpansions)
	assert.Equal(t, "x", set.StorePath)
}

func TestItemTimeout(t *testing.T) {
	d, err := ProjectConfig{}.ItemTimeout()
	require.NoError(t, err)
	assert.Zero(t, d)

	_, err = ProjectConfig{Timeout: "-1s"}.ItemTimeout()
	assert.Error(t, err)
}
