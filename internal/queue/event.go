// Package queue defines message payloads exchanged over the message broker
// and the client code that publishes and consumes them.
package queue

// AuthEventQueue is the durable queue all authentication events go through.
const AuthEventQueue = "auth.events"

// Event types carried in AuthEvent.Type.
const (
	EventUserRegistered = "user.registered"
	EventUserLoggedOut  = "user.logged_out"
)

// AuthEvent is published when a user registers or signs out everywhere.  It
// contains enough information for downstream consumers (notifications,
// audit, analytics) to act without querying the primary database.
type AuthEvent struct {
	Type       string `json:"type"`
	UserID     uint64 `json:"user_id"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	OccurredAt string `json:"occurred_at"`
}
