package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes
    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// RequireRole returns a middleware function that enforces that the
// authenticated user carries one of the listed roles in the JWT "role"
// claim.  Requests with a missing, non-string or disallowed role are
// aborted with 403 Forbidden.  JWTAuth must run earlier in the chain
// to populate the context.  Fine-grained capability checks (who may
// cancel whose booking, who moderates reviews) live in the handlers;
// this gate only fences whole route groups.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant-time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            // A role of the wrong type is treated the same as no role.
            role, ok := c.Get("role").(string)
            if !ok || !allowed[role] {
                return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
            }
            return next(c)
        }
    }
}