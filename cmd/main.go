// Package main is the entry point for the AI gateway.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/compresr/ai-gateway/internal/config"
	"github.com/compresr/ai-gateway/internal/gateway"
	"github.com/compresr/ai-gateway/internal/monitoring"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	config.LoadDotEnv()
	setupLogging(*debug)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("environment", cfg.Environment).
		Msg("ai gateway starting")

	gw := gateway.New(cfg)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Info().Msg("shutdown signal received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := gw.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("gateway shutdown error")
		}
	}()

	if err := gw.Start(); err != nil && err.Error() != "http: Server closed" {
		log.Error().Err(err).Msg("gateway serve error")
		os.Exit(1)
	}

	log.Info().Msg("ai gateway stopped")
}

// setupLogging configures the global zerolog logger.
func setupLogging(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	monitoring.Global(monitoring.LoggerConfig{
		Level:  level.String(),
		Format: "console",
		Output: "stdout",
	})
}
