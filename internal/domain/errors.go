package domain

import (
	"errors"
	"fmt"
)

// Error conditions the core surfaces instead of raw store errors. Callers
// match with errors.Is; extra context is carried by wrapping.
var (
	// ErrNotFound: a referenced tournament, player or raw result is absent.
	ErrNotFound = errors.New("not found")

	// ErrAmbiguousIdentity: name resolution found conflicting canonical rows.
	ErrAmbiguousIdentity = errors.New("ambiguous identity")

	// ErrValidation: a raw result is structurally malformed.
	ErrValidation = errors.New("validation failed")

	// ErrTransientStore: the store was temporarily unavailable; retried with
	// backoff before being escalated.
	ErrTransientStore = errors.New("transient store failure")

	// ErrConsistency: a post-condition check failed. Always fatal, never
	// retried; indicates a logic defect, not bad input.
	ErrConsistency = errors.New("consistency violation")

	// ErrReplayInProgress: a second replay was requested while one is running.
	ErrReplayInProgress = errors.New("replay already in progress")
)

// Validation builds an ErrValidation with a formatted reason.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
