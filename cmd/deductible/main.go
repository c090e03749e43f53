package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"deductible/internal/auth"
	"deductible/internal/cli"
	"deductible/internal/config"
	apphttp "deductible/internal/http"
	"deductible/internal/log"
	"deductible/internal/receipts"
	"deductible/internal/services"
)

func main() {
	cli.LoadEnvFile()

	// Bootstrap logger until the configured level is known
	logger := cli.SetupLogger("info")
	cfg := cli.LoadAndValidateConfig(logger)
	logger = cli.SetupLogger(cfg.LogLevel)

	if err := run(logger, cfg); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(logger *log.Logger, cfg *config.Config) error {
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("Failed to close database", log.FieldError, err)
		}
	}()

	store := receipts.NewStore(cfg.ReceiptsDir)
	if err := store.Init(); err != nil {
		return fmt.Errorf("prepare receipts directory %s: %w", cfg.ReceiptsDir, err)
	}

	svc := services.NewExpenseService(repo, store)
	authenticator := auth.NewAuthenticator(cfg.AppUser, cfg.AppPass, cfg.SecretKey).
		WithSecureCookie(cfg.SecureCookie)

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           cfg.Addr(),
		Service:        svc,
		Auth:           authenticator,
		ReceiptsDir:    cfg.ReceiptsDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		Logger:         logger,
	})

	ctx, stop := cli.SignalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting deductible server",
			log.FieldOperation, log.OpStartup,
			"addr", cfg.Addr(),
			"db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
