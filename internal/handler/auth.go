package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/food-delivery-auth/internal/middleware"
	"github.com/iliyamo/food-delivery-auth/internal/service"
)

// dbTimeout bounds the duration of store calls made on behalf of one request.
const dbTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type userPart struct {
	ID    uint64 `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}
type authResp struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         userPart `json:"user"`
}

func (h *AuthHandler) respond(c echo.Context, status int, pair service.TokenPair) error {
	return c.JSON(status, authResp{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.Auth.AccessTokenTTL() / time.Second),
		User: userPart{
			ID:    pair.Principal.UserID,
			Email: pair.Principal.Email,
			Name:  pair.FullName,
			Role:  string(pair.Principal.Role),
		},
	})
}

// Register: create a customer account plus profile and return a first
// session immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email_and_password_required"})
	}
	if strings.TrimSpace(req.FullName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "full_name_required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	pair, err := h.Auth.Register(ctx, req.Email, req.Password, req.FullName, req.Phone, req.Address, c.RealIP())
	if err != nil {
		return h.writeError(c, err)
	}
	return h.respond(c, http.StatusCreated, pair)
}

// Login: verify credentials and return a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email_and_password_required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	pair, err := h.Auth.Login(ctx, req.Email, req.Password, c.RealIP())
	if err != nil {
		return h.writeError(c, err)
	}
	return h.respond(c, http.StatusOK, pair)
}

// Refresh: rotate the presented refresh token and return a fresh pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	pair, err := h.Auth.Refresh(ctx, req.RefreshToken, c.RealIP())
	if err != nil {
		return h.writeError(c, err)
	}
	return h.respond(c, http.StatusOK, pair)
}

// Logout: revoke every session of the user owning the presented refresh
// token.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid_body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, req.RefreshToken); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint exposing the request's principal.
func (h *AuthHandler) Me(c echo.Context) error {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication_required"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id": p.UserID,
		"email":   p.Email,
		"role":    string(p.Role),
	})
}

// SweepTokens: admin maintenance endpoint; revokes all expired refresh
// tokens and reports the count.
func (h *AuthHandler) SweepTokens(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	n, err := h.Auth.SweepExpired(ctx)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"swept": n})
}

// writeError maps orchestrator errors onto stable HTTP error codes.  Storage
// failures fall through to a plain 500 without leaking internals.
func (h *AuthHandler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrUserExists):
		return c.JSON(http.StatusConflict, echo.Map{"error": "email_already_exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_credentials"})
	case errors.Is(err, service.ErrUserNotActive):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "user_not_active"})
	case errors.Is(err, service.ErrRefreshNotProvided):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token_required"})
	case errors.Is(err, service.ErrRefreshNotFound):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh_token_not_found"})
	case errors.Is(err, service.ErrRefreshRevoked):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh_token_revoked"})
	case errors.Is(err, service.ErrRefreshExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh_token_expired"})
	default:
		c.Logger().Errorf("auth: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal_error"})
	}
}
