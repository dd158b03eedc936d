package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/food-delivery-auth/internal/model"
)

// TokenRepo persists refresh tokens (single 'token_hash' column; raw values
// never touch the database).  All mutations are single-row conditional
// updates or inserts, so no application-level locking is needed; the
// database itself arbitrates concurrent rotations on the same token.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Create inserts a refresh token row with revoked_at NULL.
func (r *TokenRepo) Create(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time, createdByIP string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at, created_by_ip) VALUES (?,?,?,UTC_TIMESTAMP(),?)",
		userID, tokenHash, expiresAt, createdByIP)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
			return ErrDuplicateToken
		}
	}
	return err
}

// FindByHash returns the stored record for a token digest, revoked or not.
// Deciding what a revoked or expired row means is the caller's job; the
// repository only reports state.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var (
		t         model.RefreshToken
		revokedAt sql.NullTime
		createdIP sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, created_at, created_by_ip FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revokedAt, &t.CreatedAt, &createdIP)
	if errors.Is(err, sql.ErrNoRows) {
		return model.RefreshToken{}, ErrNotFound
	}
	if err != nil {
		return model.RefreshToken{}, err
	}
	if revokedAt.Valid {
		rt := revokedAt.Time
		t.RevokedAt = &rt
	}
	t.CreatedByIP = createdIP.String
	return t, nil
}

// Revoke marks a token as revoked.  Idempotent: revoking an already revoked
// token is a no-op and returns nil.
func (r *TokenRepo) Revoke(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeIfActive revokes a token only if it is still active and reports
// whether this call performed the revocation.  The WHERE clause is the
// compare-and-set that makes refresh rotation single-winner across server
// instances: of two concurrent calls on the same hash, exactly one sees
// rows-affected = 1.
func (r *TokenRepo) RevokeIfActive(ctx context.Context, tokenHash string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// RevokeAllForUser revokes all of the user's active tokens and returns how
// many rows were touched.  Used on logout to invalidate every session.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SweepExpired marks every active-but-expired token as revoked.  Safe to run
// repeatedly and concurrently; once all matching rows are updated further
// calls affect nothing.
func (r *TokenRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE revoked_at IS NULL AND expires_at < ?",
		now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
