// Package dtnerr defines the two error kinds spec.md §7 says may terminate
// a simulation run: ConfigError and InvariantError. Every other outcome
// spec.md lists (TransferDenied, TransferFailed, CacheFull) is normal flow
// control and is represented by plain return values elsewhere, never by an
// error from this package.
package dtnerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError reports a malformed or missing scenario setting. A
// ConfigError aborts the run before the simulation starts.
type ConfigError struct {
	Field string
	cause error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.cause)
}

func (e *ConfigError) Unwrap() error { return e.cause }

// NewConfigError wraps cause with the name of the offending field.
func NewConfigError(field string, cause error) *ConfigError {
	return &ConfigError{Field: field, cause: errors.WithStack(cause)}
}

// InvariantError reports an internal contract violation: a connection
// missing an endpoint, a reception id looked up where it must exist, a
// negative time step, eviction of a pinned message. InvariantError aborts
// the run; it is never recovered from inside the core.
type InvariantError struct {
	Invariant string
	Context   map[string]interface{}
	cause     error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated: %s %v", e.Invariant, e.Context)
}

func (e *InvariantError) Unwrap() error { return e.cause }

// NewInvariantError builds an InvariantError carrying structured context
// about the offending values, so a caller catching it at the simulation
// boundary can log exactly what broke.
func NewInvariantError(invariant string, context map[string]interface{}) *InvariantError {
	return &InvariantError{
		Invariant: invariant,
		Context:   context,
		cause:     errors.Errorf("invariant %s broken", invariant),
	}
}
