package domain

import "github.com/pkg/errors"

var (
	// ErrNotAuthenticated is returned when a mutation is attempted with
	// no signed-in principal. Fatal to the operation, never retried.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotFound covers missing rows, including public lookups of slugs
	// that do not exist or are no longer shared.
	ErrNotFound = errors.New("not found")

	// ErrConflict is a backend uniqueness violation (e.g. a share slug
	// collision). Callers may retry with a fresh value.
	ErrConflict = errors.New("conflict")

	// ErrValidation rejects bad input before any optimistic mutation or
	// network call happens.
	ErrValidation = errors.New("validation failed")
)
