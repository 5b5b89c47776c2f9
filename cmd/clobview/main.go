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

	"clobview/internal/config"
	"clobview/internal/engineapi"
	"clobview/internal/refresh"
	"clobview/internal/server"
	"clobview/internal/state"
	"clobview/internal/view"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // best-effort: .env is optional

	cfg, err := config.Load("config.yaml")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config.yaml: %v\n", err)
		os.Exit(1)
	}

	logger := config.NewLogger(cfg.LogLevel, cfg.LogFile)

	logger.Info("clobview starting",
		slog.Int("port", cfg.Port),
		slog.String("engine_api_url", cfg.EngineAPIURL),
		slog.Int("request_timeout_s", cfg.RequestTimeoutSeconds),
	)

	st := state.New(cfg.AutoRefreshDefault())
	engine := engineapi.NewClient(cfg.EngineAPIURL, cfg.RequestTimeout(), logger)

	var srv *server.HTTPServer
	ref := refresh.New(engine, st, logger, func(snap view.Snapshot) { srv.BroadcastSnapshot(snap) }, refresh.Options{
		TradesShown: cfg.TradesShown,
		LevelsShown: cfg.LevelsShown,
		MinInterval: cfg.AutoRefreshMin(),
		MaxInterval: cfg.AutoRefreshMax(),
	})
	srv = server.NewHTTPServer(cfg, st, engine, ref, logger)

	// Render the first view before the operator asks for one.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := ref.RefreshNow(ctx); err != nil {
		logger.Warn("initial refresh", slog.String("err", err.Error()))
	}

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: srv.Router(),
	}

	done := make(chan struct{})
	go func() {
		logger.Info("HTTP server listening", slog.Int("port", cfg.Port))
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", slog.String("err", err.Error()))
			cancel()
		}
		close(done)
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigc:
	case <-ctx.Done():
	}

	logger.Info("shutting down...")
	shCtx, shCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shCancel()

	ref.Stop()
	_ = httpSrv.Shutdown(shCtx)
	<-done
	logger.Info("bye")
}
