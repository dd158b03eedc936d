package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/food-delivery-auth/internal/auth"
	"github.com/iliyamo/food-delivery-auth/internal/model"
	"github.com/iliyamo/food-delivery-auth/internal/repository"
)

// ----- in-memory stores -----
//
// The fakes mirror the repository contracts, including the detail the
// orchestrator's correctness rests on: RevokeIfActive is a compare-and-set
// under a single lock, so of two concurrent rotations on one hash exactly
// one observes the token as active.

type memUsers struct {
	mu   sync.Mutex
	seq  uint64
	rows map[uint64]model.User
}

func newMemUsers() *memUsers { return &memUsers{rows: make(map[uint64]model.User)} }

func (m *memUsers) Create(_ context.Context, email, passwordHash string, role model.Role) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.rows {
		if u.Email == email {
			return 0, repository.ErrEmailExists
		}
	}
	m.seq++
	m.rows[m.seq] = model.User{ID: m.seq, Email: email, PasswordHash: passwordHash, Role: role, Status: model.StatusActive}
	return m.seq, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.rows {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (m *memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.rows[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return u, nil
}

func (m *memUsers) setStatus(id uint64, status model.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.rows[id]
	u.Status = status
	m.rows[id] = u
}

type memTokens struct {
	mu   sync.Mutex
	seq  uint64
	rows map[string]*model.RefreshToken
}

func newMemTokens() *memTokens { return &memTokens{rows: make(map[string]*model.RefreshToken)} }

func (m *memTokens) Create(_ context.Context, userID uint64, tokenHash string, expiresAt time.Time, createdByIP string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[tokenHash]; ok {
		return repository.ErrDuplicateToken
	}
	m.seq++
	m.rows[tokenHash] = &model.RefreshToken{
		ID: m.seq, UserID: userID, TokenHash: tokenHash,
		ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(), CreatedByIP: createdByIP,
	}
	return nil
}

func (m *memTokens) FindByHash(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[tokenHash]
	if !ok {
		return model.RefreshToken{}, repository.ErrNotFound
	}
	return *t, nil
}

func (m *memTokens) Revoke(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.rows[tokenHash]; ok && t.RevokedAt == nil {
		now := time.Now().UTC()
		t.RevokedAt = &now
	}
	return nil
}

func (m *memTokens) RevokeIfActive(_ context.Context, tokenHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.rows[tokenHash]
	if !ok || t.RevokedAt != nil {
		return false, nil
	}
	now := time.Now().UTC()
	t.RevokedAt = &now
	return true, nil
}

func (m *memTokens) RevokeAllForUser(_ context.Context, userID uint64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := time.Now().UTC()
	for _, t := range m.rows {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			n++
		}
	}
	return n, nil
}

func (m *memTokens) SweepExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, t := range m.rows {
		if t.RevokedAt == nil && now.After(t.ExpiresAt) {
			rv := now
			t.RevokedAt = &rv
			n++
		}
	}
	return n, nil
}

func (m *memTokens) setExpiry(tokenHash string, expiresAt time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[tokenHash].ExpiresAt = expiresAt
}

type memProfiles struct {
	mu   sync.Mutex
	seq  uint64
	rows map[uint64]model.CustomerProfile // keyed by user id
}

func newMemProfiles() *memProfiles { return &memProfiles{rows: make(map[uint64]model.CustomerProfile)} }

func (m *memProfiles) Create(_ context.Context, p model.CustomerProfile) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	p.ID = m.seq
	m.rows[p.UserID] = p
	return p.ID, nil
}

func (m *memProfiles) GetByUserID(_ context.Context, userID uint64) (model.CustomerProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[userID]
	if !ok {
		return model.CustomerProfile{}, repository.ErrNotFound
	}
	return p, nil
}

// ----- harness -----

type testEnv struct {
	svc      *AuthService
	users    *memUsers
	tokens   *memTokens
	profiles *memProfiles
}

func newTestEnv() *testEnv {
	users := newMemUsers()
	tokens := newMemTokens()
	profiles := newMemProfiles()
	codec := auth.NewCodec("test-secret", "food-delivery-auth", 3600)
	svc := New(users, tokens, profiles, codec, Config{BcryptCost: bcrypt.MinCost, RefreshTTLDays: 7}, nil)
	return &testEnv{svc: svc, users: users, tokens: tokens, profiles: profiles}
}

func (e *testEnv) register(t *testing.T, email, password string) TokenPair {
	t.Helper()
	pair, err := e.svc.Register(context.Background(), email, password, "Test User", "", "", "127.0.0.1")
	require.NoError(t, err)
	return pair
}

// ----- tests -----

func TestRegisterThenLogin(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	reg := env.register(t, "a@x.com", "secret1")
	assert.Equal(t, model.RoleCustomer, reg.Principal.Role)
	assert.Equal(t, "a@x.com", reg.Principal.Email)
	assert.Equal(t, "Test User", reg.FullName)
	assert.NotEmpty(t, reg.AccessToken)
	assert.NotEmpty(t, reg.RefreshToken)

	login, err := env.svc.Login(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, login.Principal.Role)

	// Each call issues a distinct pair.
	assert.NotEqual(t, reg.RefreshToken, login.RefreshToken)
	assert.NotEqual(t, reg.AccessToken, login.AccessToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	env := newTestEnv()
	env.register(t, "a@x.com", "secret1")

	// Case-insensitive duplicate.
	_, err := env.svc.Register(context.Background(), "A@X.com", "other", "Other User", "", "", "")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestLoginInvalidCredentials(t *testing.T) {
	env := newTestEnv()
	env.register(t, "a@x.com", "secret1")
	ctx := context.Background()

	_, err := env.svc.Login(ctx, "a@x.com", "wrong", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(ctx, "nobody@x.com", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginNotActive(t *testing.T) {
	env := newTestEnv()
	pair := env.register(t, "a@x.com", "secret1")

	for _, status := range []model.Status{model.StatusInactive, model.StatusSuspended} {
		env.users.setStatus(pair.Principal.UserID, status)
		_, err := env.svc.Login(context.Background(), "a@x.com", "secret1", "")
		assert.ErrorIs(t, err, ErrUserNotActive, "status %s", status)
	}
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	reg := env.register(t, "a@x.com", "secret1")

	rotated, err := env.svc.Refresh(ctx, reg.RefreshToken, "")
	require.NoError(t, err)
	assert.NotEqual(t, reg.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, reg.Principal, rotated.Principal)

	// Single-use: the consumed token can never rotate again.
	_, err = env.svc.Refresh(ctx, reg.RefreshToken, "")
	assert.ErrorIs(t, err, ErrRefreshRevoked)

	// The replacement still works.
	_, err = env.svc.Refresh(ctx, rotated.RefreshToken, "")
	require.NoError(t, err)
}

func TestRefreshValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.Refresh(ctx, "   ", "")
	assert.ErrorIs(t, err, ErrRefreshNotProvided)

	_, err = env.svc.Refresh(ctx, "never-issued", "")
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRefreshExpiredIsRevokedDefensively(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	reg := env.register(t, "a@x.com", "secret1")

	hash := auth.HashRefreshValue(reg.RefreshToken)
	env.tokens.setExpiry(hash, time.Now().UTC().Add(-time.Hour))

	_, err := env.svc.Refresh(ctx, reg.RefreshToken, "")
	assert.ErrorIs(t, err, ErrRefreshExpired)

	// The failure path must close the reuse window.
	stored, err := env.tokens.FindByHash(ctx, hash)
	require.NoError(t, err)
	assert.True(t, stored.Revoked())

	// And a second attempt fails on the revocation, not the expiry.
	_, err = env.svc.Refresh(ctx, reg.RefreshToken, "")
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestRefreshNotActiveUser(t *testing.T) {
	env := newTestEnv()
	reg := env.register(t, "a@x.com", "secret1")

	env.users.setStatus(reg.Principal.UserID, model.StatusSuspended)
	_, err := env.svc.Refresh(context.Background(), reg.RefreshToken, "")
	assert.ErrorIs(t, err, ErrUserNotActive)
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	env := newTestEnv()
	reg := env.register(t, "a@x.com", "secret1")

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.svc.Refresh(context.Background(), reg.RefreshToken, "")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, revoked int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			assert.ErrorIs(t, err, ErrRefreshRevoked)
			revoked++
		}
	}
	assert.Equal(t, 1, ok, "exactly one rotation must win")
	assert.Equal(t, 1, revoked, "the loser must observe the revocation")
}

func TestLogoutRevokesAllSessions(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.register(t, "a@x.com", "secret1")

	s1, err := env.svc.Login(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)
	s2, err := env.svc.Login(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, s1.RefreshToken))

	// Every previously issued session is dead, not just the presented one.
	_, err = env.svc.Refresh(ctx, s2.RefreshToken, "")
	assert.ErrorIs(t, err, ErrRefreshRevoked)

	// Logging out again with the same (now revoked) token still resolves the
	// user and is a no-op: revocation is idempotent.
	assert.NoError(t, env.svc.Logout(ctx, s1.RefreshToken))
}

func TestLogoutValidation(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	assert.ErrorIs(t, env.svc.Logout(ctx, ""), ErrRefreshNotProvided)
	assert.ErrorIs(t, env.svc.Logout(ctx, "never-issued"), ErrRefreshNotFound)
}

func TestSweepExpired(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	reg := env.register(t, "a@x.com", "secret1")
	live, err := env.svc.Login(ctx, "a@x.com", "secret1", "")
	require.NoError(t, err)

	env.tokens.setExpiry(auth.HashRefreshValue(reg.RefreshToken), time.Now().UTC().Add(-time.Minute))

	n, err := env.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	// Idempotent: nothing left to sweep.
	n, err = env.svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// The unexpired session survived.
	_, err = env.svc.Refresh(ctx, live.RefreshToken, "")
	assert.NoError(t, err)
}
