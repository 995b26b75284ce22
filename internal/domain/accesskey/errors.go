package accesskey

import "errors"

// ErrKeyNotFound indicates the key does not exist in the store.
var ErrKeyNotFound = errors.New("access key not found")

// ErrKeyExpired indicates the key is past its expiry.
var ErrKeyExpired = errors.New("access key expired")

// ErrDeviceBound indicates the presenting device already holds a
// different live key.
var ErrDeviceBound = errors.New("device already bound to another live key")

// ErrDuplicateKey indicates a generated key collided with an existing
// record. Retried internally by Issue.
var ErrDuplicateKey = errors.New("duplicate access key")

// ErrGenerationExhausted indicates key generation kept colliding past
// the retry budget.
var ErrGenerationExhausted = errors.New("key generation retries exhausted")

// ErrInvalidDuration indicates a duration token that does not match
// <integer><m|h|d>.
var ErrInvalidDuration = errors.New("invalid duration")

// ErrInvalidFilter indicates an unknown list filter token.
var ErrInvalidFilter = errors.New("invalid list filter")
