package domain

import "errors"

// Sentinel errors for the application.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrUnauthorized = errors.New("unauthorized access")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("resource already exists")
	ErrInvalidInput = errors.New("invalid input")

	// Rating ledger business rules.
	ErrInvalidRating   = errors.New("rating must be between 1 and 5 stars")
	ErrDuplicateRating = errors.New("seller already rated for this transaction")
	ErrSelfRating      = errors.New("cannot rate your own listing")
)
