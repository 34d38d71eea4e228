package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"ctoverlay/pkg/dataset"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "List the scan/mask pairs of the dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		pairs, err := dataset.Index(cfg.Dataset.Root, cfg.Dataset.ImageDir, cfg.Dataset.MaskDir)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tIMAGE\tMASK")
		for _, p := range pairs {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.FileName, p.ImagePath, p.MaskPath)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
