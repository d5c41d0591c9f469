package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"invoiceqc/internal/app"
	"invoiceqc/internal/config"
	"invoiceqc/internal/handler"
	"invoiceqc/internal/logging"
	"invoiceqc/internal/router"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, app.Options{Registerer: prometheus.DefaultRegisterer, Logger: logger})
	if err != nil {
		return err
	}
	defer a.Close()

	// Initialize handlers
	var pinger handler.Pinger
	if a.DB != nil {
		pinger = a.DB
	}
	handlers := router.Handlers{
		Health:     handler.NewHealthHandler(pinger),
		Validation: handler.NewValidationHandler(a.Validation, a.Extraction, cfg.Extract.MaxPDFSizeMB<<20, cfg.Server.MaxBodyMB<<20),
	}
	if a.InvoiceSvc != nil {
		handlers.Invoice = handler.NewInvoiceHandler(a.InvoiceSvc)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Setup(handlers, router.Options{
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Port, "environment", cfg.Server.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}
