package model

import "time"

// Role is the platform role carried inside access tokens and stored on the
// `users` table as an enumerated string.
type Role string

const (
	RoleCustomer        Role = "CUSTOMER"
	RoleRestaurantOwner Role = "RESTAURANT_OWNER"
	RoleAdmin           Role = "ADMIN"
)

// Valid reports whether r is one of the known platform roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleRestaurantOwner, RoleAdmin:
		return true
	}
	return false
}

// Status is the account lifecycle state stored on the `users` table.  Only
// ACTIVE accounts may log in or refresh a session; INACTIVE and SUSPENDED
// accounts keep their rows (and history) but can no longer authenticate.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

// User represents an account record as stored in the `users` table.  Each
// field corresponds to a column.  The json tags are omitted here because
// these structs are used internally by the repository layer; handlers define
// separate response types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Email        – unique email address, stored lowercased.
//  PasswordHash – bcrypt hashed password.
//  Role         – platform role (CUSTOMER, RESTAURANT_OWNER or ADMIN).
//  Status       – account state (ACTIVE, INACTIVE or SUSPENDED).
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	Role         Role      // users.role
	Status       Status    // users.status
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// Principal is the authenticated identity derived from a verified access
// token.  It is reconstructed on every request by the bearer middleware and
// never persisted.
type Principal struct {
	UserID uint64
	Email  string
	Role   Role
}
