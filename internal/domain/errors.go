package domain

import "errors"

// Sentinel errors carried as a stable kind on every failure the services
// raise. Handlers discriminate with errors.Is and map each kind to exactly
// one HTTP status, so no layer ever pattern-matches on message text.
var (
	// ErrValidation signals malformed or missing request data.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a referenced row (order, product, cart item) does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock is the business-rule failure raised when a
	// requested quantity exceeds the live stock of a product, either at
	// order time or at confirmation time.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict indicates a state transition the order cannot accept.
	ErrConflict = errors.New("conflict")
	// ErrPersistence wraps infrastructure failures after the enclosing
	// transaction has been rolled back.
	ErrPersistence = errors.New("persistence failed")
)
