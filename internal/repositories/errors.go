package repositories

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates the attempted write lost to a concurrent one:
	// a uniqueness violation or an atomic pair update whose precondition no
	// longer held. Callers may retry once after re-reading state.
	ErrConflict = errors.New("record conflict")
)
