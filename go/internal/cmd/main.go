package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/vallamkali/go/internal/config"
	"github.com/rs/zerolog/log"
)

// The relay gateway: websocket relay between registration surfaces and
// displays, plus the registration REST endpoints.
func main() {
	config.LoadDotEnv()
	config.SetupLogging()

	cfg, err := loadConfig(config.GetEnv("GATEWAY_CONFIG", ""))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load gateway config")
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := setupDatabase(ctx, cfg.Database.Enabled)
	if pool != nil {
		defer pool.Close()
	}

	services, err := setupServices(cfg, pool)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create gateway services")
	}
	server := setupServer(cfg, services)

	log.Info().
		Str("port", cfg.Port).
		Bool("nats", cfg.Relay.UseNATS).
		Bool("database", pool != nil).
		Msg("starting relay gateway")

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		if err := services.Relay.Start(ctx); err != nil {
			log.Error().Err(err).Msg("relay service failed")
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	cancel()
	select {
	case <-relayDone:
	case <-shutdownCtx.Done():
		log.Warn().Msg("relay service did not stop in time")
	}

	log.Info().Msg("relay gateway shutdown complete")
}
