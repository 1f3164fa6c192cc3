// stubserver runs the in-memory stub of the guild API for local development.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/alquimia/consola/internal/config"
	"github.com/alquimia/consola/internal/domain/models"
	"github.com/alquimia/consola/internal/stubapi"
	"github.com/alquimia/consola/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	server := stubapi.New(cfg.Stub, logger.Named(baseLogger, "stubapi"))

	// A known supervisor account so the CLI works out of the box.
	if err := server.SeedUser("supervisor@gremio.test", "cambiame", string(models.RoleSupervisor)); err != nil {
		baseLogger.Fatal("failed to seed supervisor account", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Stub.Port,
		Handler:      server.Engine(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("stub server starting", zap.String("port", cfg.Stub.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
