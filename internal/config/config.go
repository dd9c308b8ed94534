package config

import (
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Loopback-bound by default; the server is a local capability, not a
	// public endpoint.
	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:"127.0.0.1:5000"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"300s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	MaxBodyBytes int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"67108864"`

	// Model options. MODEL_PATH empty means no engine is loaded and the
	// transcription endpoint answers 503.
	ModelName               string `env:"MODEL_NAME" envDefault:"whisper-local"`
	ModelPath               string `env:"MODEL_PATH"`
	ConditionOnPreviousText bool   `env:"CONDITION_ON_PREVIOUS_TEXT" envDefault:"true"`
	VadFilter               bool   `env:"VAD_FILTER" envDefault:"false"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// ModelOptions is the read-only snapshot of engine settings handed to the
// request builder. Requests never mutate it.
type ModelOptions struct {
	ModelName               string
	ConditionOnPreviousText bool
	VadFilter               bool
}

// ModelOptions returns the engine-flag snapshot for this configuration.
func (c *Config) ModelOptions() ModelOptions {
	return ModelOptions{
		ModelName:               c.ModelName,
		ConditionOnPreviousText: c.ConditionOnPreviousText,
		VadFilter:               c.VadFilter,
	}
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile   string
	HTTPAddr  string
	LogLevel  string
	ModelName string
	ModelPath string
}

// Load reads configuration from .env file, environment variables, and CLI
// overrides. Priority: CLI flags > environment variables > .env file >
// struct defaults.
func Load(overrides Overrides) (*Config, error) {
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.ModelName != "" {
		cfg.ModelName = overrides.ModelName
	}
	if overrides.ModelPath != "" {
		cfg.ModelPath = overrides.ModelPath
	}

	return cfg, nil
}
