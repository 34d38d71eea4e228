package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ctoverlay/pkg/config"
	"ctoverlay/pkg/labels"
	"ctoverlay/pkg/review"
	"ctoverlay/pkg/visualization"
)

var rootCmd = &cobra.Command{
	Use:   "ctoverlay",
	Short: "Color-coded lesion overlays for CT scans",
	Long: `ctoverlay pairs CT scans with their segmentation masks, blends the mask
labels onto the grayscale scan and renders a mosaic of sampled slices whose
titles carry per-label intensity statistics.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "ctoverlay.yaml", "YAML configuration file")
	rootCmd.PersistentFlags().String("root", "", "Dataset root (overrides dataset.root)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode with verbose logging")
}

// loadConfig reads the configuration file and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	if root, _ := cmd.Flags().GetString("root"); root != "" {
		cfg.Dataset.Root = root
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Output.Verbose = true
	}
	if f := cmd.Flags().Lookup("output"); f != nil && f.Changed {
		cfg.Output.Dir = f.Value.String()
	}
	if f := cmd.Flags().Lookup("format"); f != nil && f.Changed {
		cfg.Output.Format = f.Value.String()
	}
	if f := cmd.Flags().Lookup("alpha"); f != nil && f.Changed {
		cfg.Overlay.Alpha, _ = cmd.Flags().GetFloat64("alpha")
	}
	if f := cmd.Flags().Lookup("cols"); f != nil && f.Changed {
		cfg.Mosaic.Cols, _ = cmd.Flags().GetInt("cols")
	}
	if f := cmd.Flags().Lookup("display"); f != nil && f.Changed {
		cfg.Mosaic.DisplayNum, _ = cmd.Flags().GetInt("display")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newReviewer wires a reviewer from the configuration. Rendering is
// enabled only when withRenderer is set.
func newReviewer(cfg *config.Config, logger *logrus.Logger, withRenderer bool) (*review.Reviewer, error) {
	set, err := cfg.LabelSet()
	if err != nil {
		return nil, err
	}
	return review.NewReviewer(paramsFor(cfg, set), rendererFor(cfg, withRenderer), logger), nil
}

func paramsFor(cfg *config.Config, set *labels.Set) *review.Params {
	return &review.Params{
		Root:       cfg.Dataset.Root,
		ImageDir:   cfg.Dataset.ImageDir,
		MaskDir:    cfg.Dataset.MaskDir,
		OutputDir:  cfg.Output.Dir,
		Extension:  cfg.Extension(),
		Labels:     set,
		Alpha:      cfg.Overlay.Alpha,
		Cols:       cfg.Mosaic.Cols,
		DisplayNum: cfg.Mosaic.DisplayNum,
	}
}

func rendererFor(cfg *config.Config, enabled bool) review.Renderer {
	if !enabled {
		return nil
	}
	return visualization.NewRenderer(cfg.Mosaic.TileSize)
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	return logger
}
