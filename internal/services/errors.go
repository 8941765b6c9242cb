package services

import "errors"

// Bad-request conditions. Handlers map these to 400.
var (
	ErrExternalIDRequired = errors.New("externalId is required")
	ErrRolesNotArray      = errors.New("roles must be an array")
	ErrMessageRequired    = errors.New("message is required")
)

// ErrUserNotFound maps to 404. Every other error from this package is a store
// fault.
var ErrUserNotFound = errors.New("user not found")
