package config

import (
	"fmt"
)

// Error codes for configuration
const (
	ErrCodeInvalidConfig = "INVALID_CONFIG"
	ErrCodeConfigParse   = "CONFIG_PARSE"
)

// ErrInvalidConfig is returned when a setting has an unusable value
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e *ErrInvalidConfig) Error() string {
	return fmt.Sprintf("invalid config '%s': %s", e.Field, e.Reason)
}

// Code returns the error code.
func (e *ErrInvalidConfig) Code() string {
	return ErrCodeInvalidConfig
}

// NewErrInvalidConfig creates a new ErrInvalidConfig
func NewErrInvalidConfig(field, reason string) *ErrInvalidConfig {
	return &ErrInvalidConfig{
		Field:  field,
		Reason: reason,
	}
}

// ErrConfigParse is returned when the config file cannot be read or decoded
type ErrConfigParse struct {
	Path string
	Err  error
}

func (e *ErrConfigParse) Error() string {
	return fmt.Sprintf("failed to load config '%s': %v", e.Path, e.Err)
}

func (e *ErrConfigParse) Unwrap() error {
	return e.Err
}

// Code returns the error code.
func (e *ErrConfigParse) Code() string {
	return ErrCodeConfigParse
}

// NewErrConfigParse creates a new ErrConfigParse
func NewErrConfigParse(path string, err error) *ErrConfigParse {
	return &ErrConfigParse{
		Path: path,
		Err:  err,
	}
}
