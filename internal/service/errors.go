// Package service contains the authentication orchestrator: credential
// verification, user-status checks, token issuance and refresh-token
// rotation.  It holds no per-request state; an AuthService instance is safe
// for concurrent use as long as the stores behind it are.
package service

import "errors"

// Every error below is terminal for the request that triggered it; nothing
// is retried here.  Handlers map them onto stable HTTP error codes.
var (
	// ErrInvalidCredentials – unknown email or wrong password.  The two
	// cases are deliberately indistinguishable to the caller. HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotActive – the account exists but its status is INACTIVE or
	// SUSPENDED; neither login nor refresh is allowed. HTTP 403.
	ErrUserNotActive = errors.New("user not active")

	// ErrUserExists – registration attempted with an email that already has
	// an account (case-insensitive). HTTP 409.
	ErrUserExists = errors.New("user already exists")

	// ErrRefreshNotProvided – the refresh token value was blank. HTTP 400.
	ErrRefreshNotProvided = errors.New("refresh token not provided")

	// ErrRefreshNotFound – no stored record matches the presented value.
	// HTTP 401.
	ErrRefreshNotFound = errors.New("refresh token not found")

	// ErrRefreshRevoked – the record exists but was already revoked, either
	// by an earlier rotation, a logout, or the sweeper. Also the outcome for
	// the loser of a concurrent rotation race. HTTP 401.
	ErrRefreshRevoked = errors.New("refresh token revoked")

	// ErrRefreshExpired – the record is past its expiry.  Validation
	// defensively revokes it before returning this, closing the reuse
	// window. HTTP 401.
	ErrRefreshExpired = errors.New("refresh token expired")
)
