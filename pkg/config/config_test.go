package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ctoverlay/internal/models"
	"ctoverlay/pkg/labels"
	"ctoverlay/pkg/overlay"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "rp_im", cfg.Dataset.ImageDir)
	assert.Equal(t, "rp_msk", cfg.Dataset.MaskDir)
	assert.Equal(t, 0.3, cfg.Overlay.Alpha)
	assert.Equal(t, 5, cfg.Mosaic.Cols)
	assert.Equal(t, 25, cfg.Mosaic.DisplayNum)
	assert.Equal(t, ".jpg", cfg.Extension())

	set, err := cfg.LabelSet()
	require.NoError(t, err)
	assert.Equal(t, labels.Default().Labels(), set.Labels())
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctoverlay.yaml")
	data := `
overlay:
  alpha: 0.5
  labels:
    - {id: 1, name: lesion, color: [255, 255, 0]}
mosaic:
  cols: 4
output:
  format: png
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.5, cfg.Overlay.Alpha)
	assert.Equal(t, 4, cfg.Mosaic.Cols)
	assert.Equal(t, 25, cfg.Mosaic.DisplayNum, "unset keys keep defaults")
	assert.Equal(t, ".png", cfg.Extension())

	set, err := cfg.LabelSet()
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())
	l, ok := set.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, labels.Label{ID: 1, Name: "lesion", Color: labels.RGB{255, 255, 0}}, l)
}

func TestLoadConfigRejectsNaNAlpha(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nan.yaml")
	require.NoError(t, os.WriteFile(path, []byte("overlay:\n  alpha: .nan\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.True(t, math.IsNaN(cfg.Overlay.Alpha))
	assert.ErrorIs(t, cfg.Validate(), overlay.ErrInvalidAlpha)
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"alpha too large", func(c *Config) { c.Overlay.Alpha = 1.2 }},
		{"alpha negative", func(c *Config) { c.Overlay.Alpha = -0.1 }},
		{"alpha NaN", func(c *Config) { c.Overlay.Alpha = math.NaN() }},
		{"zero cols", func(c *Config) { c.Mosaic.Cols = 0 }},
		{"zero display", func(c *Config) { c.Mosaic.DisplayNum = 0 }},
		{"zero tile size", func(c *Config) { c.Mosaic.TileSize = 0 }},
		{"bad format", func(c *Config) { c.Output.Format = "gif" }},
		{"duplicate label id", func(c *Config) { c.Overlay.Labels[1].ID = 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLabelSetColorArity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Overlay.Labels[0].Color = []int{255, 0}

	_, err := cfg.LabelSet()
	assert.ErrorIs(t, err, models.ErrShapeMismatch)
	assert.Error(t, cfg.Validate())
}
