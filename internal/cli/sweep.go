package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/models"
	"github.com/UNO-CSCI4830/project4-logbook/internal/service"

	"github.com/spf13/cobra"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	AsOf    string
	Timeout time.Duration
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one alert sweep and print the report",
		Long: `Run the alert sweep once. Without --as-of the sweep covers alerts due
before today + ALERT_LEAD_DAYS.

Example:
  logbook-alert sweep
  logbook-alert sweep --as-of 2024-03-11 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.AsOf, "as-of", "", "sweep alerts due before this date (YYYY-MM-DD)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 5*time.Minute, "overall sweep timeout")

	return cmd
}

func runSweep(cmd *cobra.Command, opts *SweepOptions) error {
	var asOf *models.Date
	if opts.AsOf != "" {
		d, err := models.ParseDate(opts.AsOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of: %w", err)
		}
		asOf = &d
	}

	cfg, logger, err := bootstrap(opts.RootOptions)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	svc, err := service.NewAlertService(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create alert service: %w", err)
	}
	defer svc.Stop()

	report, err := svc.RunSweepOnce(ctx, asOf, opts.Timeout)
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), report, opts.Format)
}
