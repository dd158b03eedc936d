package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/food-delivery-auth/internal/model"
)

// ProfileRepo reads and writes the 'customer_profiles' table.
type ProfileRepo struct{ DB *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{DB: db} }

// Create inserts a profile row for a freshly registered user and returns its
// ID.
func (r *ProfileRepo) Create(ctx context.Context, p model.CustomerProfile) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO customer_profiles (user_id, full_name, phone, address, created_at, updated_at) VALUES (?,?,?,?,UTC_TIMESTAMP(),UTC_TIMESTAMP())",
		p.UserID, p.FullName, p.Phone, p.Address)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUserID fetches the profile for a user.
func (r *ProfileRepo) GetByUserID(ctx context.Context, userID uint64) (model.CustomerProfile, error) {
	var (
		p     model.CustomerProfile
		phone sql.NullString
		addr  sql.NullString
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, full_name, phone, address, created_at, updated_at FROM customer_profiles WHERE user_id=? LIMIT 1",
		userID).Scan(&p.ID, &p.UserID, &p.FullName, &phone, &addr, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.CustomerProfile{}, ErrNotFound
	}
	if err != nil {
		return model.CustomerProfile{}, err
	}
	p.Phone = phone.String
	p.Address = addr.String
	return p, nil
}
