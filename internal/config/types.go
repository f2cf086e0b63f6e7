// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"conu-cli/pkg/probe"

	"github.com/charmbracelet/log"
)

const (
	// EngineAuto picks Podman, then Docker, whichever is installed.
	EngineAuto ContainerEngine = "auto"
	// EnginePodman uses Podman as the container runtime.
	EnginePodman ContainerEngine = "podman"
	// EngineDocker uses Docker as the container runtime.
	EngineDocker ContainerEngine = "docker"

	// UnboundedValue is the textual form of probe.Unbounded for timeouts.
	UnboundedValue = "unbounded"

	// DefaultPause is the CLI's liveness poll interval. It stays well below
	// probe.DefaultTimeout so a unit spawned within the budget gets its result
	// read before the timeout check.
	DefaultPause = 100 * time.Millisecond
)

var (
	// ErrInvalidContainerEngine is returned when a ContainerEngine value is not recognized.
	ErrInvalidContainerEngine = errors.New("invalid container engine")
	// ErrInvalidLogLevel is returned when a log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidDuration is the sentinel error wrapped by InvalidDurationError.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// ContainerEngine specifies which container runtime container checks use.
	ContainerEngine string

	// InvalidContainerEngineError is returned when a ContainerEngine value is not recognized.
	// It wraps ErrInvalidContainerEngine for errors.Is() compatibility.
	InvalidContainerEngineError struct {
		Value ContainerEngine
	}

	// InvalidLogLevelError is returned when a log level is not recognized.
	// It wraps ErrInvalidLogLevel for errors.Is() compatibility.
	InvalidLogLevelError struct {
		Value string
	}

	// InvalidDurationError is returned when a duration field does not parse.
	// It wraps ErrInvalidDuration for errors.Is() compatibility.
	InvalidDurationError struct {
		Field string
		Value string
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors from all sub-components.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// ProbeDefaults holds the budgets applied to probes that do not set their own.
	ProbeDefaults struct {
		// Timeout is a Go duration or "unbounded".
		Timeout string `json:"timeout" mapstructure:"timeout" toml:"timeout"`
		// Pause is a Go duration.
		Pause string `json:"pause" mapstructure:"pause" toml:"pause"`
		// Count is the maximum number of attempts, or -1 for unbounded.
		Count int `json:"count" mapstructure:"count" toml:"count"`
	}

	// ContainerConfig configures the container checks.
	ContainerConfig struct {
		Engine ContainerEngine `json:"engine" mapstructure:"engine" toml:"engine"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level string `json:"level" mapstructure:"level" toml:"level"`
	}

	// Config is the conu configuration.
	Config struct {
		Probe     ProbeDefaults   `json:"probe" mapstructure:"probe" toml:"probe"`
		Container ContainerConfig `json:"container" mapstructure:"container" toml:"container"`
		Log       LogConfig       `json:"log" mapstructure:"log" toml:"log"`
	}
)

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Probe: ProbeDefaults{
			Timeout: probe.DefaultTimeout.String(),
			Pause:   DefaultPause.String(),
			Count:   probe.Unbounded,
		},
		Container: ContainerConfig{Engine: EngineAuto},
		Log:       LogConfig{Level: log.WarnLevel.String()},
	}
}

// Validate returns an error if the engine is not recognized.
func (e ContainerEngine) Validate() error {
	switch e {
	case EngineAuto, EnginePodman, EngineDocker:
		return nil
	default:
		return &InvalidContainerEngineError{Value: e}
	}
}

// String returns the string representation of the ContainerEngine.
func (e ContainerEngine) String() string { return string(e) }

// ParseLevel parses the configured log level.
func (c LogConfig) ParseLevel() (log.Level, error) {
	lvl, err := log.ParseLevel(c.Level)
	if err != nil {
		return 0, &InvalidLogLevelError{Value: c.Level}
	}
	return lvl, nil
}

// Apply copies the configured budgets into cfg, replacing only fields that
// are still zero.
func (d ProbeDefaults) Apply(cfg *probe.Config) error {
	timeout, pause, err := d.durations()
	if err != nil {
		return err
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = timeout
	}
	if cfg.Pause == 0 {
		cfg.Pause = pause
	}
	if cfg.Count == 0 {
		cfg.Count = d.Count
	}
	return nil
}

func (d ProbeDefaults) durations() (timeout, pause time.Duration, err error) {
	timeout, err = ParseBudget("probe.timeout", d.Timeout)
	if err != nil {
		return 0, 0, err
	}
	pause, err = time.ParseDuration(d.Pause)
	if err != nil || pause <= 0 {
		return 0, 0, &InvalidDurationError{Field: "probe.pause", Value: d.Pause}
	}
	return timeout, pause, nil
}

// ParseBudget parses a positive Go duration or "unbounded" (probe.Unbounded).
func ParseBudget(field, s string) (time.Duration, error) {
	if strings.EqualFold(s, UnboundedValue) {
		return probe.Unbounded, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, &InvalidDurationError{Field: field, Value: s}
	}
	return d, nil
}

// Validate reports every invalid field of c.
func (c *Config) Validate() error {
	var errs []error
	if _, _, err := c.Probe.durations(); err != nil {
		errs = append(errs, err)
	}
	if c.Probe.Count <= 0 && c.Probe.Count != probe.Unbounded {
		errs = append(errs, fmt.Errorf("probe.count: must be positive or %d, got %d", probe.Unbounded, c.Probe.Count))
	}
	if err := c.Container.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.Log.ParseLevel(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidContainerEngineError) Error() string {
	return fmt.Sprintf("invalid container engine %q (valid: auto, podman, docker)", e.Value)
}

// Unwrap returns ErrInvalidContainerEngine for errors.Is() compatibility.
func (e *InvalidContainerEngineError) Unwrap() error { return ErrInvalidContainerEngine }

// Error implements the error interface.
func (e *InvalidLogLevelError) Error() string {
	return fmt.Sprintf("invalid log level %q (valid: debug, info, warn, error)", e.Value)
}

// Unwrap returns ErrInvalidLogLevel for errors.Is() compatibility.
func (e *InvalidLogLevelError) Unwrap() error { return ErrInvalidLogLevel }

// Error implements the error interface.
func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("%s: invalid duration %q", e.Field, e.Value)
}

// Unwrap returns ErrInvalidDuration for errors.Is() compatibility.
func (e *InvalidDurationError) Unwrap() error { return ErrInvalidDuration }

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %d field error(s): %s", len(e.FieldErrors), strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}
