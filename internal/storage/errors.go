package storage

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is against an error returned by the store.
var (
	ErrIOFailure     = errors.New("store i/o failure")
	ErrCorruptData   = errors.New("store data corrupt")
	ErrLockTimeout   = errors.New("store lock timeout")
	ErrStaleSnapshot = errors.New("store changed since snapshot")
	ErrInvalidRecord = errors.New("invalid record")
)

// Error is returned by every store operation that fails
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Retryable reports whether err is transient and the operation may be retried unchanged
func Retryable(err error) bool {
	return errors.Is(err, ErrIOFailure) || errors.Is(err, ErrLockTimeout)
}

func ioError(op string, err error) error {
	return &Error{Op: op, Kind: ErrIOFailure, Err: err}
}

func corruptError(op string, err error) error {
	return &Error{Op: op, Kind: ErrCorruptData, Err: err}
}

// classify leaves store errors untouched and treats anything else as an I/O failure
func classify(op string, err error) error {
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return ioError(op, err)
}
