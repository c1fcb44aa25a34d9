package storage

import "errors"

var (
	// ErrAlreadyExists is returned by repositories if a record with the same ID already exists
	ErrAlreadyExists = errors.New("record already exists")

	// ErrConflict is returned by repositories if a record references another one that does not exist
	ErrConflict = errors.New("record conflicts with existing data")
)
