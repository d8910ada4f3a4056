package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UNO-CSCI4830/project4-logbook/internal/httpapi"
	"github.com/UNO-CSCI4830/project4-logbook/internal/metrics"
	"github.com/UNO-CSCI4830/project4-logbook/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr        string
	NoScheduler bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the daily alert sweep",
		Long: `Start the HTTP API (appliances, alerts, /metrics, /healthz) and schedule
the daily alert sweep using ALERT_CRON.

Example:
  logbook-alert serve
  logbook-alert serve --addr :9090 --no-scheduler`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "override HTTP_ADDR")
	cmd.Flags().BoolVar(&opts.NoScheduler, "no-scheduler", false, "serve the API without the daily sweep")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, logger, err := bootstrap(opts.RootOptions)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if opts.Addr != "" {
		cfg.HTTP.Addr = opts.Addr
	}

	svc, err := service.NewAlertService(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create alert service: %w", err)
	}
	defer svc.Stop()

	if !opts.NoScheduler {
		if err := svc.StartScheduler(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	router := httpapi.NewRouter(logger)
	router.RegisterApplianceRoutes(httpapi.NewApplianceHandler(svc.Appliances(), svc.Engine(), logger))
	router.RegisterSweepRoutes(httpapi.NewSweepHandler(svc.Engine(), logger))
	router.RegisterOpsRoutes(httpapi.NewHealthHandler(svc, logger), metrics.HTTPHandler(svc.Registry()))

	srv := service.NewServer(cfg.HTTP.Addr, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		if serveErr != nil {
			logger.Error("HTTP server failed", zap.Error(serveErr))
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}
	return serveErr
}
