package types

import "errors"

// Error classes shared by services, repositories and handlers. Callers wrap
// them with a client-facing message, e.g. fmt.Errorf("%w: userId is required.", ErrValidation).
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("authentication required or invalid credentials")
	ErrConflict        = errors.New("item already exists or conflict")
	ErrNotFound        = errors.New("requested item not found")
)
