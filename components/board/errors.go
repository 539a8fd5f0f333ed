package board

import (
	"errors"
	"fmt"
)

var (
	errMissingWidgetStore = errors.New("board: widget store not configured")
	errMissingQueryClient = errors.New("board: query client not configured")
	errMissingWidgetID    = errors.New("board: widget id is required")

	// ErrWidgetNotFound is returned for lookups against unknown widget ids.
	ErrWidgetNotFound = errors.New("board: widget not found")
)

// ConfigurationError marks a fetch that can never succeed as configured, such
// as a widget with no index bound. It is fatal for that fetch and never
// retried.
type ConfigurationError struct {
	WidgetID string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("board: widget %s misconfigured: %s", e.WidgetID, e.Reason)
}

// TransientError wraps a network or server failure that is safe to retry.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("board: %s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// ValidationError rejects malformed input (custom time ranges, hand-edited
// queries) synchronously at the boundary, leaving committed state untouched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("board: invalid %s: %s", e.Field, e.Reason)
}

// IsTransient reports whether err should be retried with backoff.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsValidation reports whether err is an input validation rejection.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConfiguration reports whether err is a fatal widget misconfiguration.
func IsConfiguration(err error) bool {
	var c *ConfigurationError
	return errors.As(err, &c)
}
