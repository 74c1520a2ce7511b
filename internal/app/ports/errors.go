package ports

import "errors"

// Error kinds shared by every command surface. Specific failures wrap one of
// these so callers can classify with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state")
	ErrInsufficientResource = errors.New("insufficient resource")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrStaleVersion         = errors.New("stale version")
	ErrTimeout              = errors.New("timeout")
)
