package junction

import (
	"errors"
	"fmt"

	"github.com/xraph/junction/blocking"
	"github.com/xraph/junction/catalog"
	"github.com/xraph/junction/id"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("junction: not found")
	ErrAlreadyExists = errors.New("junction: already exists")
	ErrInvalidInput  = errors.New("junction: invalid input")

	// Domain errors
	ErrAccountNotFound      = errors.New("junction: account not found")
	ErrSubscriptionNotFound = errors.New("junction: subscription not found")
	ErrNoCatalog            = errors.New("junction: no catalog configured")

	// ErrCatalogLookup is wrapped by every catalog failure met while
	// computing billing events.
	ErrCatalogLookup = catalog.ErrLookup

	// ErrInvariantViolation is wrapped by the values of panics raised on
	// programming errors, such as merging out-of-order durations.
	ErrInvariantViolation = blocking.ErrInvariantViolation

	// Store errors
	ErrStoreClosed     = errors.New("junction: store is closed")
	ErrMigrationFailed = errors.New("junction: migration failed")
)

// CatalogError is the detailed form of ErrCatalogLookup.
type CatalogError = catalog.Error

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("junction: validation failed for %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// SubscriptionError ties a failure to the subscription it happened on.
type SubscriptionError struct {
	SubscriptionID id.SubscriptionID
	Err            error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("junction: subscription %s: %v", e.SubscriptionID, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "junction: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("junction: %d errors occurred: %v", len(e.Errors), errors.Join(e.Errors...))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound)
}

// IsCatalogError returns true if the error comes from a failed catalog lookup.
func IsCatalogError(err error) bool {
	return errors.Is(err, ErrCatalogLookup)
}
