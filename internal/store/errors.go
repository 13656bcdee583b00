package store

import "errors"

var (
	// ErrStorageUnavailable means the backing medium could not be read at
	// list time. Local media never return it for merely missing or corrupt
	// data (that is an empty collection); remote media must return it when
	// "empty" cannot be told apart from a connection failure.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrPersistenceFailure means a collection rewrite did not complete.
	// Callers must not assume the record was saved.
	ErrPersistenceFailure = errors.New("persistence failure")
)
