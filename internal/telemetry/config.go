// Package telemetry configures structured logging and Prometheus metrics for
// the formflow binaries.
package telemetry

import (
	"fmt"
	"io"
	"strings"
)

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is the minimum level: trace, debug, info, warn or error.
	Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	// Format is json or console.
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
	// Output is stdout, stderr or a file path.
	Output string `yaml:"output"`
	// EnableCaller adds file:line to each entry.
	EnableCaller bool `yaml:"enableCaller"`

	// Writer overrides Output when set.
	Writer io.Writer `yaml:"-"`
}

// MetricsConfig configures the metrics registry.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

// DefaultLoggingConfig logs info and above as JSON to stderr.
func DefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{Level: "info", Format: "json", Output: "stderr"}
}

// DefaultMetricsConfig enables metrics under the formflow namespace.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{Enabled: true, Namespace: "formflow"}
}

// Validate reports unknown level or format values.
func (c LoggingConfig) Validate() error {
	if _, err := parseLevel(c.Level); err != nil {
		return err
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "console":
		return nil
	default:
		return fmt.Errorf("telemetry: unknown log format %q", c.Format)
	}
}
