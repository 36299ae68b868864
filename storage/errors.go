package storage

import "errors"

var (
	// ErrNotFound is returned when a key does not exist in the store.
	//
	// Note: the badger API returns badger.ErrKeyNotFound; modules in
	// storage/badger and storage/badger/operation translate it to
	// storage.ErrNotFound so callers never depend on the backend.
	ErrNotFound = errors.New("key not found")

	// ErrAlreadyExists is returned when inserting a key that exists.
	ErrAlreadyExists = errors.New("key already exists")
)
