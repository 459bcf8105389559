// Command ingest runs a single ingestion with the server's configuration and
// prints the report as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lysyi3m/world-on-fire/app/bootstrap"
	"github.com/lysyi3m/world-on-fire/app/cfg"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitNoSaves = 2
)

func main() {
	appConfig, err := cfg.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
	if appConfig == nil {
		return
	}

	bootstrap.SetupLogging(appConfig.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	app, err := bootstrap.New(ctx, appConfig)
	if err != nil {
		stop()
		slog.Error("Failed to initialize application", "error", err)
		os.Exit(exitFailure)
	}

	code := run(ctx, app, os.Stdout)

	app.Close()
	stop()
	os.Exit(code)
}

// run performs one ingestion, writes the report to out and returns the exit code.
// A run that saved nothing and reported errors exits with exitNoSaves.
func run(ctx context.Context, app *bootstrap.App, out io.Writer) int {
	report := app.Pipeline.Run(ctx)

	if report.Saved > 0 {
		if err := app.Cache.InvalidateNews(ctx); err != nil {
			slog.Warn("Failed to invalidate news cache", "error", err)
		}
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		slog.Error("Failed to write report", "error", err)
		return exitFailure
	}

	if report.Saved == 0 && len(report.Errors) > 0 {
		return exitNoSaves
	}
	return exitOK
}
