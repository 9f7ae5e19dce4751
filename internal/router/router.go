package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/iliyamo/room-reservation/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/room-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// allRoles lists every role the service understands.  Protected groups
// accept all of them; finer checks live in the handlers via role
// capabilities.
var allRoles = []string{"admin", "user", "facility_manager", "moderator", "auditor", "service"}

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Used by load balancers and monitoring to verify the service is up.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies
// the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Rotates the refresh token.
    g.POST("/refresh", a.Refresh)
    // Issues a new access token without rotating the refresh token.
    g.POST("/refresh-access", a.RefreshAccess)
    // Logout accepts either a bearer token (revoke all sessions) or a
    // refresh_token body (revoke one session), so it stays outside the
    // JWT middleware.
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole(allRoles...))
    auth.GET("/me", a.Me)

    // Alias kept so clients can log out at either path.
    e.POST("/v1/logout", a.Logout)
}

// RegisterMFA registers the challenge endpoint.  Codes are verified by
// the destructive endpoints themselves via headers.
func RegisterMFA(e *echo.Echo, m *handler.MFAHandler, jwtSecret string) {
    g := e.Group("/v1/mfa")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(allRoles...))
    g.POST("/challenge", m.Challenge)
}

// RegisterRooms registers room CRUD, search and the availability flag.
// All routes require authentication; write access is checked per
// handler through role capabilities.  The room listings are the one
// surface busy enough to cache, so the response cache (nil to disable)
// is scoped to this group, after JWTAuth so the cache key can carry the
// authenticated user.
func RegisterRooms(e *echo.Echo, r *handler.RoomHandler, b *handler.BookingHandler, rv *handler.ReviewHandler, jwtSecret string, cache echo.MiddlewareFunc) {
    g := e.Group("/v1/rooms")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(allRoles...))
    if cache != nil {
        g.Use(cache)
    }

    g.POST("", r.Create)
    g.GET("", r.List)
    // Search must be registered before /:id so "available" is not
    // parsed as a room id.
    g.GET("/available", r.Available)
    g.GET("/:id", r.Get)
    g.PATCH("/:id", r.Update)
    g.DELETE("/:id", r.Delete)
    g.GET("/:id/status", r.GetStatus)
    g.PATCH("/:id/status", r.SetStatus)

    // Calendar and probe endpoints for a single room.
    g.GET("/:id/bookings", b.ListByRoom)
    g.GET("/:id/availability", b.Availability)

    // Reviews nested under their room.
    g.POST("/:id/reviews", rv.Create)
    g.GET("/:id/reviews", rv.ListByRoom)
}

// RegisterBookings registers booking lifecycle routes.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
    g := e.Group("/v1/bookings")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(allRoles...))

    g.POST("", b.Create)
    g.GET("", b.ListAll)
    g.GET("/my", b.My)
    g.GET("/history", b.History)
    g.GET("/:id", b.Get)
    g.POST("/:id/cancel", b.Cancel)
    g.DELETE("/:id", b.HardDelete)
}

// RegisterReviews registers review editing and moderation routes that
// are not nested under a room.
func RegisterReviews(e *echo.Echo, rv *handler.ReviewHandler, jwtSecret string) {
    g := e.Group("/v1/reviews")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(allRoles...))

    g.GET("/my", rv.My)
    g.PATCH("/:id", rv.Update)
    g.POST("/:id/flag", rv.Flag)
    g.POST("/:id/unflag", rv.Unflag)
    g.POST("/:id/remove", rv.Remove)
    g.POST("/:id/restore", rv.Restore)
}

// RegisterUsers registers account management routes.
func RegisterUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string) {
    g := e.Group("/v1/users")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.Use(middleware.RequireRole(allRoles...))

    g.GET("", u.List)
    g.GET("/:id", u.Get)
    g.PATCH("/:id", u.Update)
    g.DELETE("/:id", u.Delete)
}
