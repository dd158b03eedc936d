// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/food-delivery-auth/internal/auth"
	"github.com/iliyamo/food-delivery-auth/internal/config"
	"github.com/iliyamo/food-delivery-auth/internal/handler"
	"github.com/iliyamo/food-delivery-auth/internal/middleware"
	"github.com/iliyamo/food-delivery-auth/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Credential operations live under /v1/auth and are
// rate limited per client IP; authenticated endpoints live under /v1 behind
// the bearer filter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, codec *auth.Codec, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	// Credential endpoints: no session required.  The token bucket damps
	// credential-stuffing and refresh-replay attempts.
	g := e.Group("/v1/auth", middleware.NewTokenBucket(rlCfg, rdb))
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	// Authenticated endpoints.  Authenticate establishes the principal (or
	// leaves the request anonymous); RequireAuth then rejects anonymous
	// callers per route group.
	v1 := e.Group("/v1", middleware.Authenticate(codec))
	v1.GET("/me", a.Me, middleware.RequireAuth())

	// Maintenance surface, platform operators only.
	admin := v1.Group("/admin", middleware.RequireAuth(), middleware.RequireRole(model.RoleAdmin))
	admin.POST("/tokens/sweep", a.SweepTokens)
}
