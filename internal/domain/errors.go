package domain

import "errors"

var (
	// ErrStoreRead wraps failures reading from a backing store.
	ErrStoreRead = errors.New("store read failed")
	// ErrStoreWrite wraps failures writing to a backing store.
	ErrStoreWrite = errors.New("store write failed")
	// ErrMalformedRecord indicates a stored record could not be decoded.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrNotFound is returned when a record cannot be located.
	ErrNotFound = errors.New("record not found")
)
