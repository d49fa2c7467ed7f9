package galaxy

import (
	"errors"
	"fmt"
)

// Domain errors shared by backends and the iteration.
var (
	// ErrConfiguration indicates missing or malformed model configuration.
	ErrConfiguration = errors.New("galaxy: invalid configuration")

	// ErrUnboundOrbit indicates a phase-space point with non-negative energy.
	ErrUnboundOrbit = errors.New("galaxy: orbit is not bound")

	// ErrEmptyComposite indicates a composite built from zero parts.
	ErrEmptyComposite = errors.New("galaxy: composite requires at least one part")

	// ErrInvalidPoint indicates a NaN or Inf coordinate.
	ErrInvalidPoint = errors.New("galaxy: invalid point (NaN or Inf detected)")
)

// ConfigurationError names the offending field of a rejected configuration.
// It matches ErrConfiguration under errors.Is.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrConfiguration, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// Configf builds a ConfigurationError for field with a formatted reason.
func Configf(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
