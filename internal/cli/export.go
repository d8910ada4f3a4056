package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/UNO-CSCI4830/project4-logbook/internal/export"
	"github.com/UNO-CSCI4830/project4-logbook/internal/service"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Owner  string
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export an owner's appliances to an .xlsx file",
		Long: `Export every appliance of one owner, with its alert state, to an Excel file.

Example:
  logbook-alert export --owner dev-user
  logbook-alert export --owner dev-user -o ./appliances.xlsx`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Owner, "owner", "", "owner (user) id (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default appliances-<owner>.xlsx)")
	_ = cmd.MarkFlagRequired("owner")

	return cmd
}

func runExport(cmd *cobra.Command, opts *ExportOptions) error {
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

	items, err := svc.Appliances().ListAppliances(ctx, opts.Owner)
	if err != nil {
		return err
	}
	data, err := export.Appliances(items)
	if err != nil {
		return err
	}

	out := opts.Output
	if out == "" {
		out = fmt.Sprintf("appliances-%s.xlsx", opts.Owner)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "exported %d appliances to %s\n", len(items), out)
	return err
}
