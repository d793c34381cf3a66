package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"dino-analyzer/internal/bootstrap"
	"dino-analyzer/internal/preflight"
	"dino-analyzer/internal/shared/config"
	"dino-analyzer/internal/shared/server"
	"dino-analyzer/internal/shared/telemetry"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Stderr, os.LookupEnv))
}

// run returns the process exit code. The web process is never started when
// preflight fails.
func run(ctx context.Context, stderr io.Writer, lookup preflight.LookupFunc) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "❌ Ошибка конфигурации: %v\n\n", err)
		fmt.Fprint(stderr, preflight.Report{EnvFile: cfg.EnvFile, Problems: []preflight.Problem{{
			Code:    preflight.ProblemConfigInvalid,
			Message: err.Error(),
		}}}.Instructions())
		return 1
	}

	report := preflight.Check(cfg, lookup)
	if !report.OK() {
		telemetry.Warn("launcher.preflight_failed", map[string]any{
			"env_file": report.EnvFile,
			"problems": len(report.Problems),
		})
		fmt.Fprint(stderr, report.Instructions())
		return 1
	}

	app, err := bootstrap.Build(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "bootstrap build: %v\n", err)
		return 1
	}

	if err := serve(ctx, app); err != nil {
		telemetry.Error("server.error", map[string]any{"error": err.Error()})
		return 1
	}
	return 0
}

func serve(ctx context.Context, app *bootstrap.App) error {
	srv := &http.Server{
		Addr:              server.Addr(app.Config.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		telemetry.Info("server.start", map[string]any{
			"addr":               srv.Addr,
			"env":                app.Config.Env,
			"model":              app.Config.GeminiModel,
			"api_key_configured": app.Config.HasAPIKey(),
			"env_file_loaded":    app.Config.EnvFileLoaded,
		})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		telemetry.Info("server.shutdown", map[string]any{"addr": srv.Addr})
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
