package domain

import "errors"

// Error taxonomy shared by the store, services and HTTP layer.
// Callers wrap these with fmt.Errorf("%w: ...") and match with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrAlreadyExists      = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrPersistence        = errors.New("persistence error")
	ErrNotification       = errors.New("notification failed")
	ErrInvalidTransition  = errors.New("invalid status transition")
)
