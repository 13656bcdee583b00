package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"brightlens.dev/optivault/internal/config"
	"brightlens.dev/optivault/internal/httpapi"
	"brightlens.dev/optivault/internal/metrics"
	"brightlens.dev/optivault/internal/store"
	boltbackend "brightlens.dev/optivault/internal/store/bolt"
	cbbackend "brightlens.dev/optivault/internal/store/couchbase"
	"brightlens.dev/optivault/internal/store/memory"
	"brightlens.dev/optivault/pkg/zerolog_config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	zerolog_config.Startup(cfg.Logging.App, cfg.Logging.ElasticsearchURL)

	log.Info().Msg("Starting optivault-api service")

	backend, closer, err := openBackend(cfg.Store)
	if err != nil {
		log.Fatal().
			Err(err).
			Str("backend", cfg.Store.Backend).
			Msg("Failed to open record store backend")
	}
	if closer != nil {
		defer closer()
	}

	server := httpapi.NewServer(store.New(backend))
	metrics.StartSystemMetrics(15 * time.Second)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Routes(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().
			Str("addr", addr).
			Str("backend", cfg.Store.Backend).
			Msg("API server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().
				Err(err).
				Msg("Failed to start API server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

// openBackend builds the configured backing medium. The returned closer, if
// non-nil, releases the medium's resources.
func openBackend(cfg config.StoreConfig) (store.Backend, func(), error) {
	switch cfg.Backend {
	case config.BackendBolt:
		b, err := boltbackend.Open(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return b, func() { b.Close() }, nil
	case config.BackendCouchbase:
		b, err := cbbackend.Connect(cbbackend.Config{
			URL:      cfg.Couchbase.URL,
			Username: cfg.Couchbase.Username,
			Password: cfg.Couchbase.Password,
			Bucket:   cfg.Couchbase.Bucket,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, func() { b.Close() }, nil
	case config.BackendMemory:
		return memory.New(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
