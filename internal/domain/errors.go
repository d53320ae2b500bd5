package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound             = errors.New("not found")
	ErrMalformedID          = errors.New("malformed recipe id")
	ErrAlreadyExists        = errors.New("already exists")
	ErrStoreClosed          = errors.New("store is closed")
	ErrUnexpectedCredential = errors.New("unexpected credential type")
	ErrNonceMismatch        = errors.New("credential nonce mismatch")
	ErrNotImplemented       = errors.New("not implemented")
)
