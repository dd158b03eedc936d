// Package repository implements persistence over `database/sql`.  The
// sentinel values below let higher layers distinguish failure scenarios
// without depending on driver error types: handlers translate them into
// stable HTTP error codes while anything else is treated as a storage
// failure and surfaced as a server error.
package repository

import "errors"

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert violates the unique index on
// users.email.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicateToken is returned when an insert violates the unique index on
// refresh_tokens.token_hash.  With 48-byte random values this is effectively
// unreachable, but callers may retry generation on it.
var ErrDuplicateToken = errors.New("duplicate refresh token")
