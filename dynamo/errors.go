package dynamo

import "errors"

var (
	// ErrUnprocessed is returned when batch writes are still unprocessed
	// after every retry.
	ErrUnprocessed = errors.New("dynamo: unprocessed batch items")

	// ErrNotFound is returned when a record doesn't exist or is deleted
	// (has TTL <= now).
	ErrNotFound = errors.New("dynamo: record not found")

	// ErrMalformedRecord is returned when a stored record cannot be
	// converted back into an item or blob.
	ErrMalformedRecord = errors.New("dynamo: malformed record")
)
