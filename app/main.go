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

	"github.com/lysyi3m/world-on-fire/app/api"
	"github.com/lysyi3m/world-on-fire/app/bootstrap"
	"github.com/lysyi3m/world-on-fire/app/cfg"
	"github.com/lysyi3m/world-on-fire/app/tasks"
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if appConfig == nil {
		return
	}

	bootstrap.SetupLogging(appConfig.Debug)

	slog.Info("Starting World On Fire server", "version", appConfig.Version)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	app, err := bootstrap.New(ctx, appConfig)
	if err != nil {
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	if appConfig.PlacesFile != "" {
		go func() {
			if err := app.Catalog.Watch(ctx); err != nil {
				slog.Error("Place catalog watcher stopped", "error", err)
			}
		}()
	}

	scheduler, err := tasks.NewScheduler(app.Pipeline, app.Resolver, app.Cache, appConfig.IngestSchedule, appConfig.TaskWorkers)
	if err != nil {
		slog.Error("Failed to create scheduler", "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	slog.Info("Task scheduler started", "schedule", appConfig.IngestSchedule, "workers", appConfig.TaskWorkers)

	handler := api.NewHandler(app.Articles, app.Heatmap, scheduler, app.Cache, app.Catalog, app.Generator, appConfig.HeatmapCacheTTL)
	server := api.NewServer(handler, appConfig.APIAccessKey, appConfig.AllowedOrigins)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	stop()

	slog.Info("Server shutdown complete")
}
