package domain

import "errors"

// Sentinel errors shared by services and delivery. Validation failures wrap
// ErrInvalidInput with the reason, e.g. fmt.Errorf("%w: group is already full", ErrInvalidInput).
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
)
