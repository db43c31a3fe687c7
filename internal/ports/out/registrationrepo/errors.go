package registrationrepo

import "errors"

var (
	// ErrNotFound indicates no registration exists for the requested code.
	ErrNotFound = errors.New("registration not found")

	// ErrDuplicateCode indicates a registration already exists with the provided code.
	ErrDuplicateCode = errors.New("registration code already exists")

	// ErrEmptyCode indicates Insert was called before a code was assigned.
	ErrEmptyCode = errors.New("registration code is empty")
)
