// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Unbounded disables the Timeout or Count budget it is assigned to.
const Unbounded = -1

const (
	// DefaultTimeout is the wall-clock budget used when Config.Timeout is zero.
	DefaultTimeout = time.Second
	// DefaultPause is the liveness poll interval used when Config.Pause is zero.
	DefaultPause = time.Second
)

var (
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid probe config")
	// ErrMissingArg is returned by Args accessors when a required key is absent.
	ErrMissingArg = errors.New("missing argument")
	// ErrInvalidArg is returned by Args accessors when a value has the wrong type.
	ErrInvalidArg = errors.New("invalid argument")
)

type (
	// Args carries the JSON-serializable arguments of a check. Each execution
	// unit decodes its own copy, so checks may mutate it freely.
	Args map[string]any

	// Config describes one probe. Zero-valued Timeout, Pause, Count and
	// ExpectedValue fall back to DefaultTimeout, DefaultPause, Unbounded and
	// true.
	//
	// With the defaults Pause equals Timeout: the first attempt is still alive
	// at its first liveness check, so the run resolves TimeoutExceeded after a
	// single pause. Use a Pause well below Timeout to read attempt results.
	//
	// Setting both Timeout and Count to Unbounded produces a run that only ends
	// on success, an unexpected error or cancellation.
	Config struct {
		// Timeout is the wall-clock budget, or Unbounded.
		Timeout time.Duration
		// Pause is the interval between liveness checks of the running attempt.
		Pause time.Duration
		// Count is the maximum number of attempts, or Unbounded.
		Count int
		// ExpectedErrors lists registered error kinds that mean "not ready yet".
		ExpectedErrors []string
		// ExpectedValue is the check result that ends the run successfully.
		// Results are compared by their canonical JSON encoding.
		ExpectedValue any
		// Check is the name of a registered check function.
		Check string
		// Args are passed to every attempt of the check.
		Args Args
	}

	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig and every field error for errors.Is() compatibility.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

// DefaultConfig returns a Config for check with every budget at its default.
func DefaultConfig(check string) Config {
	return Config{
		Timeout:       DefaultTimeout,
		Pause:         DefaultPause,
		Count:         Unbounded,
		ExpectedValue: true,
		Check:         check,
	}
}

// withDefaults returns a copy of c with zero fields defaulted and slices and
// maps cloned, so later mutation by the caller cannot reach a running probe.
func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Pause == 0 {
		c.Pause = DefaultPause
	}
	if c.Count == 0 {
		c.Count = Unbounded
	}
	if c.ExpectedValue == nil {
		c.ExpectedValue = true
	}
	c.ExpectedErrors = append([]string(nil), c.ExpectedErrors...)
	if c.Args != nil {
		args := make(Args, len(c.Args))
		for k, v := range c.Args {
			args[k] = v
		}
		c.Args = args
	}
	return c
}

// Validate reports every invalid field of c.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Check) == "" {
		errs = append(errs, errors.New("check: name is required"))
	} else if _, ok := lookupCheck(c.Check); !ok {
		errs = append(errs, &UnknownCheckError{Name: c.Check})
	}
	if c.Timeout <= 0 && c.Timeout != Unbounded {
		errs = append(errs, fmt.Errorf("timeout: must be positive or Unbounded, got %s", c.Timeout))
	}
	if c.Pause <= 0 {
		errs = append(errs, fmt.Errorf("pause: must be positive, got %s", c.Pause))
	}
	if c.Count <= 0 && c.Count != Unbounded {
		errs = append(errs, fmt.Errorf("count: must be positive or Unbounded, got %d", c.Count))
	}
	for _, kind := range c.ExpectedErrors {
		if _, ok := lookupErrorKind(kind); !ok {
			errs = append(errs, fmt.Errorf("expected errors: unknown error kind %q", kind))
		}
	}
	if _, err := encodeValue(c.ExpectedValue); err != nil {
		errs = append(errs, fmt.Errorf("expected value: %w", err))
	}
	if _, err := encodeValue(c.Args); err != nil {
		errs = append(errs, fmt.Errorf("args: %w", err))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}

// Unbounded reports whether the run has neither a time nor an attempt limit.
func (c Config) Unbounded() bool {
	return c.Timeout == Unbounded && c.Count == Unbounded
}

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrors))
	for _, err := range e.FieldErrors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid probe config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig followed by the field errors, so errors.Is
// matches both the sentinel and the cause of each field.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// String returns the string value stored under key.
func (a Args) String(key string) (string, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%w: %w: %s", ErrInvalidArg, ErrMissingArg, key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string, got %T", ErrInvalidArg, key, v)
	}
	return s, nil
}

// StringOr returns the string stored under key, or def when key is absent.
func (a Args) StringOr(key, def string) (string, error) {
	if v, ok := a[key]; !ok || v == nil {
		return def, nil
	}
	return a.String(key)
}

// Int returns the integer stored under key. JSON numbers and numeric strings
// are accepted.
func (a Args) Int(key string) (int, error) {
	v, ok := a[key]
	if !ok || v == nil {
		return 0, fmt.Errorf("%w: %w: %s", ErrInvalidArg, ErrMissingArg, key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %v", ErrInvalidArg, key, n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", ErrInvalidArg, key, err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s must be a number, got %T", ErrInvalidArg, key, v)
	}
}

// IntOr returns the integer stored under key, or def when key is absent.
func (a Args) IntOr(key string, def int) (int, error) {
	if v, ok := a[key]; !ok || v == nil {
		return def, nil
	}
	return a.Int(key)
}

// Duration returns the duration stored under key, or def when key is absent.
// Values are Go duration strings such as "250ms".
func (a Args) Duration(key string, def time.Duration) (time.Duration, error) {
	s, err := a.StringOr(key, "")
	if err != nil {
		return 0, err
	}
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidArg, key, err)
	}
	return d, nil
}
