package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/food-delivery-auth/internal/auth"
	"github.com/iliyamo/food-delivery-auth/internal/model"
	"github.com/iliyamo/food-delivery-auth/internal/queue"
	"github.com/iliyamo/food-delivery-auth/internal/repository"
)

// UserStore is the slice of the user repository the orchestrator needs.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string, role model.Role) (uint64, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// TokenStore is the refresh-token store contract.  RevokeIfActive must be a
// storage-level compare-and-set: of two concurrent calls on the same hash at
// most one may report true.
type TokenStore interface {
	Create(ctx context.Context, userID uint64, tokenHash string, expiresAt time.Time, createdByIP string) error
	FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	Revoke(ctx context.Context, tokenHash string) error
	RevokeIfActive(ctx context.Context, tokenHash string) (bool, error)
	RevokeAllForUser(ctx context.Context, userID uint64) (int64, error)
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// ProfileStore persists the non-credential registration data.
type ProfileStore interface {
	Create(ctx context.Context, p model.CustomerProfile) (uint64, error)
	GetByUserID(ctx context.Context, userID uint64) (model.CustomerProfile, error)
}

// TokenPair is the result of a successful register, login or refresh: a
// fresh access token, a fresh single-use refresh token, and a redacted view
// of the owning user.
type TokenPair struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
	Principal        model.Principal
	FullName         string
}

// Config carries the tunables the orchestrator needs.
type Config struct {
	BcryptCost     int
	RefreshTTLDays int
}

// AuthService coordinates the password hasher, the access-token codec and
// the refresh-token store.  All collaborators arrive through the
// constructor; there is no global state.
type AuthService struct {
	users    UserStore
	tokens   TokenStore
	profiles ProfileStore
	codec    *auth.Codec
	cfg      Config

	// publish sends an auth event to the broker; may be nil (e.g. in tests).
	// Failures are deliberately ignored: events are best-effort.
	publish func(ctx context.Context, ev queue.AuthEvent) error
}

// New wires the orchestrator.  publish may be nil to disable events.
func New(users UserStore, tokens TokenStore, profiles ProfileStore, codec *auth.Codec, cfg Config,
	publish func(ctx context.Context, ev queue.AuthEvent) error) *AuthService {
	return &AuthService{users: users, tokens: tokens, profiles: profiles, codec: codec, cfg: cfg, publish: publish}
}

// Register creates an ACTIVE customer account with its profile and starts a
// first session.  Fails with ErrUserExists when the email already has an
// account (comparison is case-insensitive; emails are stored lowercased).
func (s *AuthService) Register(ctx context.Context, email, password, fullName, phone, address, clientIP string) (TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	uid, err := s.users.Create(ctx, email, hash, model.RoleCustomer)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return TokenPair{}, ErrUserExists
		}
		return TokenPair{}, fmt.Errorf("create user: %w", err)
	}

	if _, err := s.profiles.Create(ctx, model.CustomerProfile{
		UserID:   uid,
		FullName: strings.TrimSpace(fullName),
		Phone:    strings.TrimSpace(phone),
		Address:  strings.TrimSpace(address),
	}); err != nil {
		return TokenPair{}, fmt.Errorf("create profile: %w", err)
	}

	user := model.User{ID: uid, Email: email, Role: model.RoleCustomer, Status: model.StatusActive}
	pair, err := s.issuePair(ctx, user, clientIP)
	if err != nil {
		return TokenPair{}, err
	}
	s.emit(ctx, queue.EventUserRegistered, user)
	return pair, nil
}

// Login verifies credentials and starts a new session.  Unknown email and
// wrong password both yield ErrInvalidCredentials; a non-ACTIVE account
// yields ErrUserNotActive regardless of credential correctness.
func (s *AuthService) Login(ctx context.Context, email, password, clientIP string) (TokenPair, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return TokenPair{}, ErrInvalidCredentials
	}
	if user.Status != model.StatusActive {
		return TokenPair{}, ErrUserNotActive
	}
	return s.issuePair(ctx, user, clientIP)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// access/refresh pair is issued.  Refresh tokens are single-use; presenting
// a token twice fails the second caller with ErrRefreshRevoked, including
// the concurrent-replay case, because the revocation is a storage-level
// compare-and-set.  An expired token is revoked even on the failure path.
func (s *AuthService) Refresh(ctx context.Context, refreshToken, clientIP string) (TokenPair, error) {
	raw := strings.TrimSpace(refreshToken)
	if raw == "" {
		return TokenPair{}, ErrRefreshNotProvided
	}
	tokenHash := auth.HashRefreshValue(raw)

	t, err := s.tokens.FindByHash(ctx, tokenHash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrRefreshNotFound
		}
		return TokenPair{}, fmt.Errorf("load refresh token: %w", err)
	}
	if t.Revoked() {
		return TokenPair{}, ErrRefreshRevoked
	}
	if t.Expired(time.Now().UTC()) {
		// Close the reuse window even though the request fails.
		if err := s.tokens.Revoke(ctx, tokenHash); err != nil {
			log.Printf("auth: revoke expired refresh token: %v", err)
		}
		return TokenPair{}, ErrRefreshExpired
	}

	user, err := s.users.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, ErrRefreshNotFound
		}
		return TokenPair{}, fmt.Errorf("load user: %w", err)
	}
	if user.Status != model.StatusActive {
		return TokenPair{}, ErrUserNotActive
	}

	// Revoke before issuing.  If the insert below fails after this point the
	// system fails closed: the old token is gone and the client must log in
	// again, rather than a "successful" rotation leaving the old token live.
	won, err := s.tokens.RevokeIfActive(ctx, tokenHash)
	if err != nil {
		return TokenPair{}, fmt.Errorf("revoke refresh token: %w", err)
	}
	if !won {
		return TokenPair{}, ErrRefreshRevoked
	}

	return s.issuePair(ctx, user, clientIP)
}

// Logout revokes every active refresh token belonging to the owner of the
// presented token — a deliberate "sign out everywhere".  The single token
// only serves to identify the user.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	raw := strings.TrimSpace(refreshToken)
	if raw == "" {
		return ErrRefreshNotProvided
	}

	t, err := s.tokens.FindByHash(ctx, auth.HashRefreshValue(raw))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrRefreshNotFound
		}
		return fmt.Errorf("load refresh token: %w", err)
	}

	if _, err := s.tokens.RevokeAllForUser(ctx, t.UserID); err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}

	if user, err := s.users.GetByID(ctx, t.UserID); err == nil {
		s.emit(ctx, queue.EventUserLoggedOut, user)
	}
	return nil
}

// SweepExpired revokes all active-but-expired refresh tokens and returns the
// number of rows touched.
func (s *AuthService) SweepExpired(ctx context.Context) (int64, error) {
	return s.tokens.SweepExpired(ctx, time.Now().UTC())
}

// AccessTokenTTL exposes the configured access-token lifetime for response
// envelopes.
func (s *AuthService) AccessTokenTTL() time.Duration { return s.codec.TTL() }

// issuePair mints an access token and creates a refresh token for the user.
func (s *AuthService) issuePair(ctx context.Context, user model.User, clientIP string) (TokenPair, error) {
	signed, accessExp, err := s.codec.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}

	// A duplicate hash means the random value collided with a stored one;
	// regenerate and try again.
	var refresh auth.RefreshValue
	for attempt := 0; ; attempt++ {
		refresh, err = auth.NewRefreshValue(s.cfg.RefreshTTLDays)
		if err != nil {
			return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
		}
		err = s.tokens.Create(ctx, user.ID, auth.HashRefreshValue(refresh.Raw), refresh.Exp, clientIP)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicateToken) && attempt < 2 {
			continue
		}
		return TokenPair{}, fmt.Errorf("save refresh token: %w", err)
	}

	pair := TokenPair{
		AccessToken:      signed,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh.Raw,
		RefreshExpiresAt: refresh.Exp,
		Principal:        model.Principal{UserID: user.ID, Email: user.Email, Role: user.Role},
	}
	if p, err := s.profiles.GetByUserID(ctx, user.ID); err == nil {
		pair.FullName = p.FullName
	}
	return pair, nil
}

// emit publishes an auth event, best-effort.
func (s *AuthService) emit(ctx context.Context, eventType string, user model.User) {
	if s.publish == nil {
		return
	}
	_ = s.publish(ctx, queue.AuthEvent{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}
