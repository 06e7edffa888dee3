package commands

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/feedqc/feedqc/internal/config"
	"github.com/feedqc/feedqc/internal/pipeline"
)

type RunOptions struct {
	DataDir string
	OutDir  string
	Date    string
	Start   string
	End     string
	Workers int
}

func NewRunCmd() *cobra.Command {
	opts := &RunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the quality pipeline for one date or a date range",
		Long: `Process the raw customers, events and orders feeds for each ingest date,
writing clean/quarantine partitions, validation reports, metrics and alerts.
Record-level problems go to quarantine and never fail the run; only setup
errors such as a missing raw file do.`,
		Example: `  # Single date
  feedqc run --date 2025-07-01 --data-dir data/raw --out-dir data/out

  # Date range, dates processed oldest first
  feedqc run --start 2025-07-01 --end 2025-07-14`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.DataDir, "data-dir", "", "Raw feed directory (ingest_date=YYYY-MM-DD partitions)")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "Output directory")
	cmd.Flags().StringVar(&opts.Date, "date", "", "Single ingest date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&opts.Start, "start", "", "Range start date, inclusive")
	cmd.Flags().StringVar(&opts.End, "end", "", "Range end date, inclusive")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Concurrent date workers (default from config)")

	return cmd
}

func runRun(ctx context.Context, opts *RunOptions) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if opts.DataDir != "" {
		cfg.DataDir = opts.DataDir
	}
	if opts.OutDir != "" {
		cfg.OutDir = opts.OutDir
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}

	dates, err := resolveDates(opts)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.LogLevel)
	runner := pipeline.NewRunner(cfg, logger)
	if err := runner.Run(ctx, dates); err != nil {
		return err
	}

	fmt.Printf("Processed %d ingest date(s)\n", len(dates))
	return nil
}

func resolveDates(opts *RunOptions) ([]string, error) {
	switch {
	case opts.Date != "" && (opts.Start != "" || opts.End != ""):
		return nil, fmt.Errorf("provide either --date or --start/--end, not both")
	case opts.Date != "":
		return []string{opts.Date}, nil
	case opts.Start != "" && opts.End != "":
		return pipeline.DateRange(opts.Start, opts.End)
	default:
		return nil, fmt.Errorf("provide either --date or both --start and --end")
	}
}

func newLogger(level string) *logrus.Logger {
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
