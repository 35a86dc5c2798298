package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formflow/internal/telemetry"
	"github.com/goliatone/go-formflow/pkg/content"
	"github.com/goliatone/go-formflow/pkg/model"
)

// Config is the CLI configuration file.
type Config struct {
	Definitions string                  `yaml:"definitions" validate:"required"`
	Content     ContentConfig           `yaml:"content"`
	Logging     telemetry.LoggingConfig `yaml:"logging"`
	Metrics     telemetry.MetricsConfig `yaml:"metrics"`
	Users       []model.User            `yaml:"users" validate:"dive"`
}

// ContentConfig selects where uploads are stored.
type ContentConfig struct {
	Backend  string `yaml:"backend" validate:"oneof=memory bolt s3"`
	BoltPath string `yaml:"boltPath" validate:"required_if=Backend bolt"`
	Bucket   string `yaml:"bucket" validate:"required_if=Backend s3"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint" validate:"omitempty,url"`
	Prefix   string `yaml:"prefix"`
}

func defaultConfig() Config {
	return Config{
		Definitions: "definitions",
		Content:     ContentConfig{Backend: "memory"},
		Logging:     telemetry.DefaultLoggingConfig(),
		Metrics:     telemetry.MetricsConfig{Namespace: "formflow"},
	}
}

// loadConfig reads path over the defaults. An empty path yields the
// defaults.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	return cfg, nil
}

func (c Config) validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return c.Logging.Validate()
}

// openStore builds the configured content store. The returned closer is never
// nil.
func openStore(ctx context.Context, cfg ContentConfig) (content.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case "", "memory":
		return content.NewMemoryStore(), noop, nil
	case "bolt":
		store, err := content.OpenBoltStore(cfg.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "s3":
		store, err := content.NewS3Store(ctx, content.S3Config{
			Bucket:   cfg.Bucket,
			Region:   cfg.Region,
			Endpoint: cfg.Endpoint,
			Prefix:   cfg.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return nil, nil, fmt.Errorf("config: unknown content backend %q", cfg.Backend)
	}
}
