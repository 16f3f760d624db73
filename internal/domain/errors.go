package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrUnsupportedOperation = errors.New("operation not supported by backend")
	ErrPersistence          = errors.New("persistence failure")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidInput         = errors.New("invalid input")
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrConflict             = errors.New("already exists")
)

// PersistenceError reports a backend that rejected or failed a read or write.
type PersistenceError struct {
	Op      string
	Backend string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s on %s backend failed: %v", e.Op, e.Backend, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// NewPersistenceError wraps err unless it already carries a domain outcome
// the caller must see as is (not found, unsupported, persistence).
func NewPersistenceError(op, backend string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnsupportedOperation) || errors.Is(err, ErrPersistence) {
		return err
	}
	return &PersistenceError{Op: op, Backend: backend, Err: err}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
