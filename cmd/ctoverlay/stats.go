package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ctoverlay/pkg/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print whole-volume intensity statistics per label",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := initLogger(cfg.Output.Verbose)
		logger.SetOutput(cmd.ErrOrStderr())

		reviewer, err := newReviewer(cfg, logger, false)
		if err != nil {
			return err
		}
		pairs, err := reviewer.Pairs()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FILE\tLABEL\tVOXELS\tMEAN±STD")
		var errs []error
		for _, p := range pairs {
			rs, err := reviewer.Summarize(p)
			if err != nil {
				logger.WithFields(logrus.Fields{"case": p.FileName, "error": err}).Error("Case failed")
				errs = append(errs, fmt.Errorf("%s: %w", p.FileName, err))
				continue
			}
			for _, r := range rs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.FileName, r.Label.Name, r.Count, stats.FormatMeanStd(r.Mean, r.Std))
			}
		}
		if err := w.Flush(); err != nil {
			return err
		}
		return errors.Join(errs...)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
