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
	"go.uber.org/zap"

	"github.com/manuwestern/dionwebsite/internal/platform/config"
	"github.com/manuwestern/dionwebsite/internal/platform/observability"
)

const (
	shutdownTimeout = 15 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string
	root := &cobra.Command{
		Use:           "web",
		Short:         "Dion clinic website",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile, "")
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with local overrides")

	var addr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile, addr)
		},
	}
	serve.Flags().StringVar(&addr, "addr", "", "listen address (defaults to :$CLINIC_WEB_PORT)")

	check := &cobra.Command{
		Use:   "check-content",
		Short: "Report missing translations and incomplete content bundles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), config.WithEnvFile(envFile))
			if err != nil {
				return err
			}
			return checkContent(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}

	root.AddCommand(serve, check)
	return root
}

func runServe(ctx context.Context, envFile, addr string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, config.WithEnvFile(envFile))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := observability.NewLogger(cfg.Site.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("init app", zap.Error(err))
		return err
	}
	defer a.Close()
	go a.forms.Run(ctx, sweepInterval)

	if addr == "" {
		addr = ":" + cfg.Server.Port
	}
	srv := a.server(addr)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("web listening",
			zap.String("addr", addr),
			zap.String("env", cfg.Site.Environment),
			zap.Bool("dev", cfg.Site.DevMode),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// server builds the HTTP server for a. Shutdown closes open event streams
// so it does not wait on them until its deadline.
func (a *app) server(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.router(),
		ReadHeaderTimeout: a.cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       a.cfg.Server.ReadTimeout,
		WriteTimeout:      a.cfg.Server.WriteTimeout,
		IdleTimeout:       a.cfg.Server.IdleTimeout,
	}
	srv.RegisterOnShutdown(a.drain)
	return srv
}
