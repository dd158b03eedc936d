package model

import "time"

// RefreshToken models an entry in the `refresh_tokens` table.  Each refresh
// token belongs to a user and carries metadata for expiry and revocation.
// The plain token value is never stored; only its SHA‑256 hash, so a leaked
// table cannot be replayed against the refresh endpoint.
//
// Fields:
//  ID          – primary key identifier.
//  UserID      – owner of the token.
//  TokenHash   – SHA‑256 hex digest of the opaque token value (unique).
//  ExpiresAt   – expiration timestamp of the token.
//  RevokedAt   – when the token was revoked (null while still active).
//  CreatedAt   – timestamp of creation.
//  CreatedByIP – client address observed when the token was issued (optional).
type RefreshToken struct {
	ID          uint64     // refresh_tokens.id
	UserID      uint64     // refresh_tokens.user_id
	TokenHash   string     // refresh_tokens.token_hash
	ExpiresAt   time.Time  // refresh_tokens.expires_at
	RevokedAt   *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt   time.Time  // refresh_tokens.created_at
	CreatedByIP string     // refresh_tokens.created_by_ip (may be empty)
}

// Revoked reports whether the token has been revoked.
func (t RefreshToken) Revoked() bool { return t.RevokedAt != nil }

// Expired reports whether the token is past its expiry at the given instant.
func (t RefreshToken) Expired(now time.Time) bool { return now.After(t.ExpiresAt) }
