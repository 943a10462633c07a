package models

import "errors"

// Stores and handlers wrap these with fmt.Errorf("...: %w"); the HTTP layer maps
// them to status codes with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("invalid request")
	ErrBodyTooLarge    = errors.New("request body too large")
)
