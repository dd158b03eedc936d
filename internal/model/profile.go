package model

import "time"

// CustomerProfile holds the non-credential part of a registration as stored
// in the `customer_profiles` table.  One row per user, created together with
// the account.
type CustomerProfile struct {
	ID        uint64    // customer_profiles.id
	UserID    uint64    // customer_profiles.user_id
	FullName  string    // customer_profiles.full_name
	Phone     string    // customer_profiles.phone (may be empty)
	Address   string    // customer_profiles.address (may be empty)
	CreatedAt time.Time // customer_profiles.created_at
	UpdatedAt time.Time // customer_profiles.updated_at
}
