package credstore

import "errors"

var (
	// ErrInvalidPath indicates an empty storage path or key
	ErrInvalidPath = errors.New("credstore.invalid_path")

	// ErrNilClient indicates a nil backend client was supplied
	ErrNilClient = errors.New("credstore.nil_client")

	// ErrStorageFailed indicates the underlying storage operation failed
	ErrStorageFailed = errors.New("credstore.storage_failed")
)
