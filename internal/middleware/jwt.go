package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/food-delivery-auth/internal/auth"
	"github.com/iliyamo/food-delivery-auth/internal/model"
)

// principalKey is the echo context key under which Authenticate stores the
// request's Principal.  The value is scoped to the single request; nothing
// is shared across requests.
const principalKey = "principal"

// Authenticate returns an Echo middleware that establishes the request's
// authenticated principal from an `Authorization: Bearer` header.  Requests
// without the header pass through anonymous — route groups that need an
// identity add RequireAuth or RequireRole on top.  A header that is present
// but does not verify is always rejected with 401 and a stable error code;
// it is never silently ignored.
func Authenticate(codec *auth.Codec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return next(c) // anonymous
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "malformed_authorization_header"})
			}

			claims, err := codec.Verify(strings.TrimSpace(raw))
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": verifyErrorCode(err)})
			}

			c.Set(principalKey, model.Principal{
				UserID: claims.UserID,
				Email:  claims.Subject,
				Role:   claims.Role,
			})
			return next(c)
		}
	}
}

// verifyErrorCode maps codec verification failures onto stable
// machine-readable codes for response bodies.
func verifyErrorCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, auth.ErrSignatureMismatch):
		return "token_signature_mismatch"
	case errors.Is(err, auth.ErrIssuerMismatch):
		return "token_issuer_mismatch"
	default:
		return "token_malformed"
	}
}

// RequireAuth rejects anonymous requests with 401.  It assumes Authenticate
// ran earlier in the chain.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := PrincipalFrom(c); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication_required"})
			}
			return next(c)
		}
	}
}

// PrincipalFrom returns the authenticated principal of the request, if any.
func PrincipalFrom(c echo.Context) (model.Principal, bool) {
	p, ok := c.Get(principalKey).(model.Principal)
	return p, ok
}
