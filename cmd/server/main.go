package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/bootstrap"
	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
	"github.com/wadjakorntonsri/go-shortlink/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: cfg.AppEnv != "production"})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	app, err := bootstrap.New(cfg, log, nil)
	if err != nil {
		log.Error("Failed to start application", logger.Err(err))
		os.Exit(1)
	}
	defer app.Close()

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      app.Handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Server starting", logger.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", logger.Err(err))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", logger.Err(err))
	}
	log.Info("Server stopped")
}
