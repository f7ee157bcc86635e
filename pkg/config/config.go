// Package config provides configuration loading and management for fibertracts.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters of the fiber set model
	Processing struct {
		// MaxDefaultDisplay caps the fibers shown by default; larger sets start
		// with a subsampling ratio of MaxDefaultDisplay/n.
		MaxDefaultDisplay int `yaml:"maxDefaultDisplay"`

		// Seed drives the shuffle table used for subsampling
		Seed uint64 `yaml:"seed"`

		// SubsamplingRatio overrides the default ratio when in (0, 1]
		SubsamplingRatio float64 `yaml:"subsamplingRatio"`
	} `yaml:"processing"`

	// ROI parameters for box selection
	ROI struct {
		// Enabled switches the model from ratio subsampling to ROI selection
		Enabled bool `yaml:"enabled"`

		// Polarity is "positive" (fibers through the box) or "negative"
		Polarity string `yaml:"polarity"`

		Center [3]float64 `yaml:"center"`
		Radius [3]float64 `yaml:"radius"`
	} `yaml:"roi"`

	// Display parameters
	Display struct {
		// Representation is one of line, tube or glyph
		Representation string `yaml:"representation"`

		// ColorMode names a display colour mode, e.g. MeanFiberOrientation
		ColorMode string `yaml:"colorMode"`

		// Invariant is the tensor invariant used for ScalarInvariant colouring
		Invariant string `yaml:"invariant"`

		// LookupTable names the colour table for scalar modes
		LookupTable string `yaml:"lookupTable"`

		TubeRadius float64 `yaml:"tubeRadius"`
		TubeSides  int     `yaml:"tubeSides"`

		// Width and Height are the snapshot size in pixels
		Width  int `yaml:"width"`
		Height int `yaml:"height"`

		// Axis is the viewing axis of the main snapshot
		Axis string `yaml:"axis"`
	} `yaml:"display"`

	// Glyph parameters
	Glyph struct {
		// Type is line, sphere or cube
		Type string `yaml:"type"`

		ScaleFactor    float64 `yaml:"scaleFactor"`
		MaxScaleFactor float64 `yaml:"maxScaleFactor"`
		ClampScaling   bool    `yaml:"clampScaling"`

		// Resolution places a glyph at every Resolution-th point
		Resolution int `yaml:"resolution"`
	} `yaml:"glyph"`

	// Editor parameters
	Editor struct {
		// PickTolerance is the pick radius in pixels
		PickTolerance float64 `yaml:"pickTolerance"`

		SelectKey string `yaml:"selectKey"`
		DeleteKey string `yaml:"deleteKey"`
		ClearKey  string `yaml:"clearKey"`
	} `yaml:"editor"`

	// Phantom parameters for the synthetic tract set
	Phantom struct {
		Bundles         int    `yaml:"bundles"`
		FibersPerBundle int    `yaml:"fibersPerBundle"`
		PointsPerFiber  int    `yaml:"pointsPerFiber"`
		Seed            uint64 `yaml:"seed"`
	} `yaml:"phantom"`

	// Output parameters
	Output struct {
		// Directory receives every generated file
		Directory string `yaml:"directory"`

		// STL enables export of the tube surface
		STL bool `yaml:"stl"`

		// Snapshot enables the JPEG snapshots along x, y and z
		Snapshot bool `yaml:"snapshot"`

		// Scene enables saving the scene attributes as YAML
		Scene bool `yaml:"scene"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.MaxDefaultDisplay = 10000
	cfg.Processing.Seed = 1
	cfg.Processing.SubsamplingRatio = 0 // Keep the model default

	// Set default ROI parameters
	cfg.ROI.Enabled = false
	cfg.ROI.Polarity = "positive"
	cfg.ROI.Center = [3]float64{0, 0, 0}
	cfg.ROI.Radius = [3]float64{10, 10, 10}

	// Set default display parameters
	cfg.Display.Representation = "tube"
	cfg.Display.ColorMode = "MeanFiberOrientation"
	cfg.Display.Invariant = "FractionalAnisotropy"
	cfg.Display.LookupTable = "rainbow"
	cfg.Display.TubeRadius = 0.5
	cfg.Display.TubeSides = 6
	cfg.Display.Width = 512
	cfg.Display.Height = 512
	cfg.Display.Axis = "z"

	// Set default glyph parameters
	cfg.Glyph.Type = "line"
	cfg.Glyph.ScaleFactor = 2
	cfg.Glyph.MaxScaleFactor = 5
	cfg.Glyph.ClampScaling = false
	cfg.Glyph.Resolution = 4

	// Set default editor parameters
	cfg.Editor.PickTolerance = 2
	cfg.Editor.SelectKey = "s"
	cfg.Editor.DeleteKey = "d"
	cfg.Editor.ClearKey = "c"

	// Set default phantom parameters
	cfg.Phantom.Bundles = 3
	cfg.Phantom.FibersPerBundle = 200
	cfg.Phantom.PointsPerFiber = 40
	cfg.Phantom.Seed = 7

	// Set default output parameters
	cfg.Output.Directory = "output"
	cfg.Output.STL = true
	cfg.Output.Snapshot = true
	cfg.Output.Scene = true
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
