package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced lot or vehicle does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on duplicate registration.
	ErrAlreadyExists = errors.New("already exists")
	// ErrConflict marks a business rule violation.
	ErrConflict = errors.New("conflict")
	// ErrInvalidArgument marks rejected input.
	ErrInvalidArgument = errors.New("invalid argument")

	ErrAlreadyParked = fmt.Errorf("%w: already parked", ErrConflict)
	ErrLotFull       = fmt.Errorf("%w: lot full", ErrConflict)
	ErrNotParked     = fmt.Errorf("%w: not parked", ErrConflict)
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
