package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ctoverlay/pkg/mosaic"
	"ctoverlay/pkg/overlay"
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render an overlay mosaic for every case",
	Long:  `Builds the color overlay of every scan/mask pair and writes one mosaic image per case to the output directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := initLogger(cfg.Output.Verbose)

		reviewer, err := newReviewer(cfg, logger, true)
		if err != nil {
			return err
		}

		start := time.Now()
		results, err := reviewer.Process()
		logger.WithFields(logrus.Fields{
			"cases":   len(results),
			"output":  cfg.Output.Dir,
			"elapsed": time.Since(start).Round(time.Millisecond).String(),
		}).Info("Render finished")
		return err
	},
}

func init() {
	renderCmd.Flags().StringP("output", "o", "", "Directory for rendered mosaics (overrides output.dir)")
	renderCmd.Flags().String("format", "", "Mosaic encoding: jpeg or png (overrides output.format)")
	renderCmd.Flags().Float64("alpha", overlay.DefaultAlpha, "Overlay opacity in [0, 1]")
	renderCmd.Flags().Int("cols", mosaic.DefaultCols, "Mosaic columns")
	renderCmd.Flags().Int("display", mosaic.DefaultDisplayNum, "Number of slices to display")
	rootCmd.AddCommand(renderCmd)
}
