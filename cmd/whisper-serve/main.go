package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/snarg/whisper-serve/internal/api"
	"github.com/snarg/whisper-serve/internal/audio"
	"github.com/snarg/whisper-serve/internal/config"
	"github.com/snarg/whisper-serve/internal/engine"
	"github.com/snarg/whisper-serve/internal/engine/whispercpp"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "listen address (host:port)")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.StringVar(&overrides.ModelName, "model-name", "", "model name reported to clients")
	flag.StringVar(&overrides.ModelPath, "model", "", "path to ggml model file")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("whisper-serve starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Engine. Without a model path the server still runs and answers 503 on
	// the transcription endpoint.
	var eng engine.Engine
	if cfg.ModelPath != "" {
		engLog := log.With().Str("component", "engine").Logger()
		wcpp, err := whispercpp.Load(cfg.ModelPath, engLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load whisper model")
		}
		defer wcpp.Close()
		eng = wcpp
	} else {
		log.Warn().Msg("no MODEL_PATH configured; transcription endpoint will answer 503")
	}
	gateway := engine.NewGateway(eng, log.With().Str("component", "gateway").Logger())

	// HTTP server
	srv := api.New(api.Options{
		Addr:      cfg.HTTPAddr,
		Gateway:   gateway,
		Decoder:   audio.WAVDecoder{},
		Config:    cfg,
		Version:   version,
		StartTime: startTime,
		Log:       log.With().Str("component", "http").Logger(),
	})
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to bind listen address")
	}

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("whisper-serve stopped")
}
