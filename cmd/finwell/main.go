package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"finwell/internal/auth"
	"finwell/internal/backend"
	"finwell/internal/cli"
	"finwell/internal/config"
	apphttp "finwell/internal/http"
	"finwell/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.Load()
	logger := cli.SetupLogger(cfg, log.ComponentApp)
	cli.MustValidate(logger, cfg.Validate)
	m := cli.NewMetrics(cfg)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	res, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend).Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Backend cleanup failed", "error", err)
		}
	}()

	svc := backend.NewServices(res.Store, res.Publisher, m)
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Categories:         svc.Categories,
		Transactions:       svc.Transactions,
		Budgets:            svc.Budgets,
		Reports:            svc.Reports,
		Health:             svc.Health,
		Ready:              res.Store.Ping,
		JWT:                auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL),
		Metrics:            m,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting finwell server",
			"port", cfg.Port,
			"backend", cfg.DataBackend,
			"events", res.Publisher != nil,
			"metrics", m != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("Server error", "error", err, "port", cfg.Port)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err, "operation", log.OpShutdown)
		return
	}
	logger.Info("Server stopped gracefully")
}
