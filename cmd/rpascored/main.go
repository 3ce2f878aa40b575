// Command rpascored serves the RPA record registry over HTTP: regulated
// record CRUD, lifecycle transitions, the compliance schedule dashboard, and
// attachment storage.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"rpascore/internal/blob"
	"rpascore/internal/config"
	"rpascore/internal/core"
	"rpascore/internal/httpapi"
	"rpascore/internal/metrics"
	"rpascore/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to TOML config (default: $RPASCORE_CONFIG, else built-in defaults)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "rpascored:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	engineCfg := cfg.Engine()
	store, err := core.OpenPersistentStore(cfg.Store(), core.NewDefaultRulesEngine(engineCfg))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() { _ = store.Close() }()

	blobs, err := blob.Open(context.Background(), cfg.BlobStore())
	if err != nil {
		return fmt.Errorf("open attachment storage: %w", err)
	}

	m := metrics.New()
	svc := core.NewService(store, engineCfg,
		core.WithLogger(log),
		core.WithMetricsRecorder(m),
		core.WithBlobStore(blobs),
	)

	router := httpapi.NewRouter(svc, m.Handler(), log)
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening",
			logger.String("addr", srv.Addr),
			logger.String("storage", cfg.Storage.Driver),
			logger.String("blob", string(blobs.Driver())),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
