package model

import (
	"errors"
	"fmt"
)

// ErrMisconfigured marks configuration errors: unmapped button values,
// missing screens or sections, constraints pointing at unknown fields. Callers
// surface it as "process is misconfigured".
var ErrMisconfigured = errors.New("process is misconfigured")

// ConfigError describes a configuration problem. It unwraps to
// ErrMisconfigured.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMisconfigured.Error(), e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrMisconfigured }

// Misconfigured formats a ConfigError.
func Misconfigured(format string, args ...any) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// StorageError reports a failure persisting submitted content.
type StorageError struct {
	Field string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store content for %q: %v", e.Field, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// MaxSizeExceededError is returned when submitted content exceeds the
// configured attachment limit.
type MaxSizeExceededError struct {
	MaxSize int64
}

func (e *MaxSizeExceededError) Error() string {
	return fmt.Sprintf("content exceeds maximum size of %d bytes", e.MaxSize)
}
