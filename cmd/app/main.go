package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"FinSignal/internal/di"
	"FinSignal/pkg/config"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "config file path")
	flag.Parse()

	// bootstrap logger until the configured one exists
	boot := zerolog.New(os.Stderr).With().Timestamp().Str("service", "finsignal").Logger()
	zerolog.TimeFieldFormat = time.RFC3339Nano

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		boot.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
	}

	boot.Info().
		Str("env", cfg.Environment).
		Str("dispatch", cfg.Dispatch.Backend).
		Bool("scanner", cfg.Scanner.Enabled).
		Bool("consumer", cfg.Kafka.Consumer.Enabled).
		Msg("starting")

	app, err := di.InitializeApp(cfg)
	if err != nil {
		boot.Fatal().Err(err).Msg("app initialization failed")
	}

	if err := app.Run(); err != nil {
		boot.Error().Err(err).Msg("app error")
		os.Exit(1)
	}
}
