// Package config provides configuration loading and management for ctoverlay.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"ctoverlay/pkg/dataset"
	"ctoverlay/pkg/labels"
	"ctoverlay/pkg/mosaic"
	"ctoverlay/pkg/overlay"
	"ctoverlay/pkg/visualization"
)

// LabelConfig is the YAML form of a mask label
type LabelConfig struct {
	ID    int32  `yaml:"id"`
	Name  string `yaml:"name"`
	Color []int  `yaml:"color,flow"`
}

// Config represents the application configuration loaded from YAML
type Config struct {
	// Dataset locates the scan/mask pairs
	Dataset struct {
		// Root is the directory holding the image and mask sub-directories
		Root string `yaml:"root"`

		ImageDir string `yaml:"imageDir"`
		MaskDir  string `yaml:"maskDir"`
	} `yaml:"dataset"`

	// Overlay parameters
	Overlay struct {
		// Alpha is the opacity of label colors over the grayscale scan
		Alpha float64 `yaml:"alpha"`

		Labels []LabelConfig `yaml:"labels"`
	} `yaml:"overlay"`

	// Mosaic layout parameters
	Mosaic struct {
		Cols       int `yaml:"cols"`
		DisplayNum int `yaml:"displayNum"`

		// TileSize is the rendered edge length of each slice in pixels
		TileSize int `yaml:"tileSize"`
	} `yaml:"mosaic"`

	// Output parameters
	Output struct {
		Dir string `yaml:"dir"`

		// Format is the image encoding of rendered mosaics: jpeg or png
		Format string `yaml:"format"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Dataset.Root = "public-covid-data"
	cfg.Dataset.ImageDir = dataset.DefaultImageDir
	cfg.Dataset.MaskDir = dataset.DefaultMaskDir

	cfg.Overlay.Alpha = overlay.DefaultAlpha
	for _, l := range labels.Default().Labels() {
		cfg.Overlay.Labels = append(cfg.Overlay.Labels, LabelConfig{
			ID:    l.ID,
			Name:  l.Name,
			Color: []int{int(l.Color[0]), int(l.Color[1]), int(l.Color[2])},
		})
	}

	cfg.Mosaic.Cols = mosaic.DefaultCols
	cfg.Mosaic.DisplayNum = mosaic.DefaultDisplayNum
	cfg.Mosaic.TileSize = visualization.DefaultTileSize

	cfg.Output.Dir = "overlays"
	cfg.Output.Format = "jpeg"
	cfg.Output.Verbose = false

	return cfg
}

// LabelSet converts the configured labels into a validated set
func (c *Config) LabelSet() (*labels.Set, error) {
	ls := make([]labels.Label, 0, len(c.Overlay.Labels))
	for _, lc := range c.Overlay.Labels {
		color, err := labels.ParseColor(lc.Color)
		if err != nil {
			return nil, fmt.Errorf("label %q: %w", lc.Name, err)
		}
		ls = append(ls, labels.Label{ID: lc.ID, Name: lc.Name, Color: color})
	}
	return labels.New(ls...)
}

// Extension returns the file extension matching Output.Format
func (c *Config) Extension() string {
	if c.Output.Format == "png" {
		return ".png"
	}
	return ".jpg"
}

// Validate checks value ranges and the label table
func (c *Config) Validate() error {
	if math.IsNaN(c.Overlay.Alpha) || c.Overlay.Alpha < 0 || c.Overlay.Alpha > 1 {
		return fmt.Errorf("overlay.alpha %v: %w", c.Overlay.Alpha, overlay.ErrInvalidAlpha)
	}
	if c.Mosaic.Cols <= 0 {
		return fmt.Errorf("mosaic.cols must be positive, got %d", c.Mosaic.Cols)
	}
	if c.Mosaic.DisplayNum <= 0 {
		return fmt.Errorf("mosaic.displayNum must be positive, got %d", c.Mosaic.DisplayNum)
	}
	if c.Mosaic.TileSize <= 0 {
		return fmt.Errorf("mosaic.tileSize must be positive, got %d", c.Mosaic.TileSize)
	}
	switch c.Output.Format {
	case "jpeg", "png":
	default:
		return fmt.Errorf("output.format must be jpeg or png, got %q", c.Output.Format)
	}
	if _, err := c.LabelSet(); err != nil {
		return fmt.Errorf("overlay.labels: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Parse YAML. A labels list in the file replaces the defaults.
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

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
