package store

import "errors"

// ErrInvalidArgument is returned when a request is rejected before touching storage.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrPersistence wraps any storage failure, the transaction it happened in
// has been rolled back.
var ErrPersistence = errors.New("persistence failure")
