// Package auth implements the credential primitives of the service: the
// signed access-token codec, opaque refresh-token value generation and
// password hashing.  Everything here is a pure function of its inputs plus
// the configured signing key and the clock; no package state is mutated.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/food-delivery-auth/internal/model"
)

// Verification failures are reason-coded so the transport layer can report a
// stable machine-readable cause without inspecting library error text.
var (
	// ErrTokenMalformed – the string is not a parseable JWT, or the claims
	// are not in the expected shape.
	ErrTokenMalformed = errors.New("access token malformed")
	// ErrSignatureMismatch – the signature does not verify against the
	// configured key, or the token was signed with a different algorithm.
	ErrSignatureMismatch = errors.New("access token signature mismatch")
	// ErrTokenExpired – the token is past its exp claim.
	ErrTokenExpired = errors.New("access token expired")
	// ErrIssuerMismatch – the iss claim does not match the configured issuer.
	ErrIssuerMismatch = errors.New("access token issuer mismatch")
)

// Claims is the signed payload of an access token.  The subject registered
// claim carries the user's email; uid and role are custom claims.  Validity
// is entirely derivable from the payload plus current time, so access tokens
// have no server-side backing record.
type Claims struct {
	UserID uint64     `json:"uid"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens with a single process-wide HS256
// key.  Rotating the key invalidates every previously issued, not-yet-expired
// token; that is accepted behavior.
type Codec struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewCodec builds a Codec from the configured signing secret, issuer string
// and access-token TTL in seconds.
func NewCodec(secret, issuer string, ttlSeconds int) *Codec {
	return &Codec{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

// TTL returns the configured access-token lifetime.
func (c *Codec) TTL() time.Duration { return c.ttl }

// Issue builds and signs an access token for the user.  The token carries
// sub (email), uid, role, iss, iat = now and exp = now + TTL.  The returned
// time is the expiry instant in UTC.
func (c *Codec) Issue(userID uint64, email string, role model.Role) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(c.ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates an access token and returns the embedded
// claims unchanged.  Signature, expiry and issuer are all checked; expiry
// uses wall-clock time with no leeway.  Failures are mapped onto the
// reason-coded errors above.
func (c *Codec) Verify(raw string) (*Claims, error) {
	tok, err := jwt.ParseWithClaims(raw, &Claims{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrSignatureMismatch
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrIssuerMismatch
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrSignatureMismatch
		default:
			return nil, ErrTokenMalformed
		}
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// RefreshValue is a freshly generated opaque refresh-token value together
// with its expiry.  The Raw string goes back to the client; only its SHA‑256
// digest is persisted.
type RefreshValue struct {
	Raw string    // raw token string returned to the client
	Exp time.Time // UTC expiration time
}

// NewRefreshValue returns a cryptographically random opaque value valid for
// ttlDays.  48 random bytes hex-encode to a 96-character string, well above
// the 128-bit minimum for an unguessable bearer secret.
func NewRefreshValue(ttlDays int) (RefreshValue, error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return RefreshValue{}, err
	}
	return RefreshValue{
		Raw: hex.EncodeToString(buf),
		Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
	}, nil
}

// HashRefreshValue returns the SHA‑256 hash of a raw refresh-token value as
// a hex string.  The database stores only this digest, so stolen rows cannot
// be used to refresh sessions.
func HashRefreshValue(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
