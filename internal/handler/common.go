package handler // handler defines http handlers

import (
    "errors"  // errors provides sentinel values used in context helpers
    "strconv" // strconv converts strings to numeric types

    "github.com/labstack/echo/v4" // echo defines request context types

    "github.com/iliyamo/room-reservation/internal/model" // model holds the role type
)

// getUserID extracts the user_id from echo.Context and converts it to uint64.
// JWT numeric claims arrive as float64; older middleware may store strings.
func getUserID(c echo.Context) (uint64, error) {
    v := c.Get("user_id")
    switch t := v.(type) {
    case uint64:
        return t, nil
    case int:
        return uint64(t), nil
    case int64:
        return uint64(t), nil
    case float64:
        return uint64(t), nil
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// getRole extracts the role claim from echo.Context and parses it into
// the closed role set.  Unknown or missing roles come back as ok=false.
func getRole(c echo.Context) (model.Role, bool) {
    s, ok := c.Get("role").(string)
    if !ok {
        return "", false
    }
    return model.ParseRole(s)
}

// pathID parses the named path parameter as an unsigned integer id.
func pathID(c echo.Context, name string) (uint64, error) {
    return strconv.ParseUint(c.Param(name), 10, 64)
}
