package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/health-keeper/internal/config"
	pkgcrypto "github.com/and161185/health-keeper/internal/crypto"
	"github.com/and161185/health-keeper/internal/limiter"
	"github.com/and161185/health-keeper/internal/migrate"
	"github.com/and161185/health-keeper/internal/repository"
	"github.com/and161185/health-keeper/internal/repository/docstore"
	"github.com/and161185/health-keeper/internal/repository/filestore"
	"github.com/and161185/health-keeper/internal/repository/memory"
	"github.com/and161185/health-keeper/internal/repository/postgres"
	"github.com/and161185/health-keeper/internal/risk"
	"github.com/and161185/health-keeper/internal/server/httpapi"
	"github.com/and161185/health-keeper/internal/service"
	"github.com/and161185/health-keeper/internal/token"
)

// app holds the wired object graph and the resources it must release.
type app struct {
	echo    *echo.Echo
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp constructs every dependency once and injects it downward.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()
	var checks []func(context.Context) error

	// Postgres
	var db *postgres.DB
	if cfg.NeedsPostgres() {
		if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
			return nil, fmt.Errorf("migrate up: %w", err)
		}
		db, err = postgres.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Ping(ctx); err != nil {
			return nil, fmt.Errorf("postgres ping: %w", err)
		}
		checks = append(checks, db.Ping)
	}

	// Persistence
	var store repository.Persistence
	switch cfg.Storage {
	case config.StorageMemory:
		logger.Warn("storage=memory: data is lost on restart")
		store = memory.New()
	case config.StorageFile:
		fs, err := filestore.New(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		store = fs
	case config.StoragePostgres:
		store = postgres.NewDocumentStore(db)
	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	// Login limiter
	var lim limiter.Limiter
	switch cfg.Limiter {
	case config.LimiterNone:
		lim = limiter.Nop{}
	case config.LimiterPostgres:
		lim = limiter.NewPG(db.Pool, cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlock)
	case config.LimiterRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		a.closers = append(a.closers, func() { _ = rdb.Close() })
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		checks = append(checks, func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		lim = limiter.NewRedis(rdb, "", cfg.LoginWindow, cfg.LoginMaxFails, cfg.LoginBlock)
	default:
		return nil, fmt.Errorf("unknown limiter %q", cfg.Limiter)
	}

	// Services
	creds := service.NewCredentialStore(docstore.NewUserRepo(store), pkgcrypto.NewArgon2Hasher(pkgcrypto.DefaultParams), lim)
	records := service.NewRecordStore(docstore.NewRecordRepo(store), creds)
	diag := service.NewDiagnosisService(risk.NewRandomAssessor(nil, nil), records)
	tokens := token.NewService([]byte(cfg.JWTKey), cfg.TokenTTL)
	gw := service.NewAuthGateway(tokens, creds)

	srv := httpapi.New(creds, diag, gw, tokens, logger)
	if len(checks) > 0 {
		srv.WithHealthCheck(func(ctx context.Context) error {
			var errs []error
			for _, check := range checks {
				errs = append(errs, check(ctx))
			}
			return errors.Join(errs...)
		})
	}
	a.echo = srv.Handler()
	return a, nil
}
