package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileGivesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Processing.SubsamplingRatio = 0.25
	cfg.ROI.Enabled = true
	cfg.ROI.Polarity = "negative"
	cfg.ROI.Center = [3]float64{1, 2, 3}
	cfg.Display.Representation = "glyph"
	cfg.Editor.SelectKey = "space"
	cfg.Phantom.Seed = 42
	require.NoError(t, SaveConfig(cfg, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "display:\n  tubeSides: 12\nphantom:\n  bundles: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Display.TubeSides)
	assert.Equal(t, 5, cfg.Phantom.Bundles)
	assert.Equal(t, 0.5, cfg.Display.TubeRadius)
	assert.Equal(t, "s", cfg.Editor.SelectKey)
	assert.Equal(t, 10000, cfg.Processing.MaxDefaultDisplay)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("display: [unterminated"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fibertracts.yaml")
	require.NoError(t, CreateDefaultConfigFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "maxDefaultDisplay: 10000")
	assert.Contains(t, string(data), "colorMode: MeanFiberOrientation")
}
