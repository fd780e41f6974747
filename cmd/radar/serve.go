package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/eddiefleurent/income_radar/internal/dashboard"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan engine as a JSON HTTP API",
		Long: `Serve the dashboard API. Endpoints:

  GET  /health          liveness probe (unauthenticated)
  GET  /api/strategies  supported strategy kinds and variants
  GET  /api/scan        run a scan (query params override config defaults)
  POST /api/payoff      expiration P/L series for a candidate

Requires dashboard.enabled: true in the config. When dashboard.auth_token
is set, requests must carry it in the X-Auth-Token header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.init(); err != nil {
				return err
			}
			if !a.cfg.Dashboard.Enabled {
				return fmt.Errorf("dashboard is disabled; set dashboard.enabled: true in %s", a.configPath)
			}
			if cmd.Flags().Changed("listen") {
				a.cfg.Dashboard.Listen = listen
			}
			return runServe(a)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	cmd.SilenceUsage = true
	return cmd
}

func runServe(a *app) error {
	defaults := a.baseRequest()
	defaults.Symbol = a.cfg.Scan.Symbols[0]

	srv := dashboard.NewServer(dashboard.Config{
		Listen:    a.cfg.Dashboard.Listen,
		AuthToken: a.cfg.Dashboard.AuthToken,
		Defaults:  defaults,
		Tiers:     tierBandsFromConfig(a.cfg.Ranking),
	}, a.scanner, a.logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.logger.Infof("Received %s, shutting down", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down dashboard: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
