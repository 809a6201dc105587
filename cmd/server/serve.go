package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/and161185/health-keeper/internal/config"
	"github.com/and161185/health-keeper/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	v := config.New()
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			configFile, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(v, configFile)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg)
		},
	}

	f := cmd.Flags()
	f.String("addr", "", "listen address")
	f.String("storage", "", "storage backend: memory, file or postgres")
	f.String("data-dir", "", "data directory for storage=file")
	f.String("database-dsn", "", "PostgreSQL DSN")
	f.Duration("token-ttl", 0, "access token lifetime")
	f.String("limiter", "", "login limiter: none, postgres or redis")
	f.String("redis-addr", "", "Redis address for limiter=redis")
	f.String("log-level", "", "debug, info, warn or error")
	f.String("log-format", "", "json or console")
	bindFlags(v, cmd)
	return cmd
}

// bindFlags maps dashed flag names onto the underscore config keys.
func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	for _, name := range []string{"addr", "storage", "data-dir", "database-dsn", "token-ttl", "limiter", "redis-addr", "log-level", "log-format"} {
		_ = v.BindPFlag(strings.ReplaceAll(name, "-", "_"), cmd.Flags().Lookup(name))
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
		zap.String("storage", cfg.Storage),
		zap.String("limiter", cfg.Limiter),
	)

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", zap.Error(err))
		return err
	}
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- a.echo.Start(cfg.Addr)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			return err
		}
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.echo.Shutdown(sctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
