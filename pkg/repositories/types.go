package repositories

import "errors"

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	var target *ErrNotFound
	return errors.As(err, &target)
}

// ErrConflict is returned when a save races with another writer.
type ErrConflict struct {
	Expected int64
	Actual   int64
}

func (e *ErrConflict) Error() string {
	return "version conflict"
}

func IsConflict(err error) bool {
	var target *ErrConflict
	return errors.As(err, &target)
}

// ErrAlreadyExists is returned when creating a match whose id is taken.
type ErrAlreadyExists struct {
}

func (e *ErrAlreadyExists) Error() string {
	return "already exists"
}

func IsAlreadyExists(err error) bool {
	var target *ErrAlreadyExists
	return errors.As(err, &target)
}
