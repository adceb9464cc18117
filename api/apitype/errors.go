package apitype

import "errors"

// Error taxonomy shared by all backend components. Operations wrap these
// with fmt.Errorf("...: %w", ...) so call sites can branch with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPath     = errors.New("invalid path")
	ErrAlreadyExists   = errors.New("already exists")
	ErrIoFailure       = errors.New("io failure")
	ErrDecodeFailure   = errors.New("decode failure")
	ErrTimeout         = errors.New("timeout")
	ErrExternalFailure = errors.New("external failure")
)
