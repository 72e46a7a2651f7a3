package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned when a required parameter is missing or malformed.
	ErrInvalidArgument = errors.New("fakedb: invalid argument")

	// ErrNotFound is returned when a referenced item, source or destination doesn't exist.
	ErrNotFound = errors.New("fakedb: item not found")

	// ErrParentNotFound is returned when the parent of an item being added
	// doesn't exist. It matches ErrNotFound.
	ErrParentNotFound = fmt.Errorf("%w: parent", ErrNotFound)

	// ErrAlreadyExists is returned when an identifier is already registered to another item.
	ErrAlreadyExists = errors.New("fakedb: identifier already in use")

	// ErrAccessDenied is returned when an item's access flags forbid the operation.
	ErrAccessDenied = errors.New("fakedb: access denied")

	// ErrNoStorage is returned when no storage is active for a database.
	ErrNoStorage = errors.New("fakedb: storage has not been initialized")
)
