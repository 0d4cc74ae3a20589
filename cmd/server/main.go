package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"fdeworld/internal/app"
	"fdeworld/internal/config"
	"fdeworld/internal/pkg/logger"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

func main() {
	boot := zap.Must(zap.NewDevelopment()).Sugar()

	cfg, err := config.Load()
	if err != nil {
		boot.Fatalw("failed to load config", "error", err)
	}

	lg, err := logger.New(cfg.App.IsProduction(), cfg.Log.Level)
	if err != nil {
		boot.Fatalw("failed to build logger", "error", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bootstrap, cleanup, err := app.Bootstrap(ctx, cfg, lg)
	if err != nil {
		lg.Fatalw("failed to bootstrap app", "error", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			lg.Errorw("cleanup error", "error", err)
		}
	}()

	addr, err := app.ListenAddr(cfg.App.HTTPPort)
	if err != nil {
		lg.Fatalw("invalid HTTP port", "error", err)
	}
	srv := bootstrap.Server(addr)

	errCh := make(chan error, 1)
	go func() {
		lg.Infow("[HTTP] listening", "addr", addr, "db", cfg.Database.Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Errorw("server error", "error", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			lg.Errorw("shutdown error", "error", err)
		}
	}
}
