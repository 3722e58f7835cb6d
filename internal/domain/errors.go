package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoSnapshot is returned when no market fetch has completed yet.
	ErrNoSnapshot = errors.New("market data not loaded")

	// ErrCurrencyNotFound is returned when a symbol is absent from the current snapshot.
	ErrCurrencyNotFound = errors.New("currency not found")

	ErrInvalidSymbol   = errors.New("invalid symbol")
	ErrInvalidInterval = errors.New("invalid chart interval")

	ErrConfigNotFound = errors.New("configuration not found")
)

// ListingError describes a failed listing request. Status is the HTTP
// status code when the provider answered, 0 otherwise.
type ListingError struct {
	Stage     string // "request", "status", "read", "decode"
	Status    int
	Err       error
	Transient bool
}

func (e *ListingError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("listing %s (HTTP %d): %v", e.Stage, e.Status, e.Err)
	}
	return fmt.Sprintf("listing %s: %v", e.Stage, e.Err)
}

func (e *ListingError) Unwrap() error {
	return e.Err
}

// TransientListingError reports a failure worth retrying, such as a dropped
// connection or a truncated body.
func TransientListingError(stage string, err error) *ListingError {
	return &ListingError{Stage: stage, Err: err, Transient: true}
}

// PermanentListingError reports a failure a retry cannot fix.
func PermanentListingError(stage string, err error) *ListingError {
	return &ListingError{Stage: stage, Err: err}
}

// ListingStatusError classifies a non-200 answer: rate limiting and
// server errors are transient, everything else is permanent.
func ListingStatusError(status int) *ListingError {
	return &ListingError{
		Stage:     "status",
		Status:    status,
		Err:       errors.New(http.StatusText(status)),
		Transient: status == http.StatusTooManyRequests || status >= 500,
	}
}

// IsTransient reports whether err wraps a ListingError worth retrying.
func IsTransient(err error) bool {
	var le *ListingError
	return errors.As(err, &le) && le.Transient
}

// PreferenceError wraps a preference backend failure with the key involved.
type PreferenceError struct {
	Op  string // "get" or "set"
	Key string
	Err error
}

func (e *PreferenceError) Error() string {
	return "preference " + e.Op + " " + e.Key + ": " + e.Err.Error()
}

func (e *PreferenceError) Unwrap() error {
	return e.Err
}

// ConfigError points at the configuration field that failed validation.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
