package middleware

import (
    "net/http"
    "net/http/httptest"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-reservation/internal/utils"
)

const testSecret = "unit-test-secret"

func protectedEcho(roles ...string) *echo.Echo {
    e := echo.New()
    g := e.Group("/v1")
    g.Use(JWTAuth(testSecret))
    if len(roles) > 0 {
        g.Use(RequireRole(roles...))
    }
    g.GET("/ping", func(c echo.Context) error {
        return c.JSON(http.StatusOK, echo.Map{
            "user_id": c.Get("user_id"),
            "role":    c.Get("role"),
        })
    })
    return e
}

func bearerFor(t *testing.T, userID uint64, role string) string {
    t.Helper()
    at, err := utils.NewAccessToken(testSecret, userID, role, 5)
    require.NoError(t, err)
    return "Bearer " + at.Token
}

func TestJWTAuthMissingToken(t *testing.T) {
    e := protectedEcho()
    req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthGarbageToken(t *testing.T) {
    e := protectedEcho()
    req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
    req.Header.Set("Authorization", "Bearer not.a.jwt")
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
    e := protectedEcho()
    at, err := utils.NewAccessToken("some-other-secret", 1, "user", 5)
    require.NoError(t, err)
    req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
    req.Header.Set("Authorization", "Bearer "+at.Token)
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthValidToken(t *testing.T) {
    e := protectedEcho()
    req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
    req.Header.Set("Authorization", bearerFor(t, 9, "user"))
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Body.String(), `"role":"user"`)
}

func TestRequireRoleAllows(t *testing.T) {
    e := protectedEcho("admin", "facility_manager")
    req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
    req.Header.Set("Authorization", bearerFor(t, 2, "facility_manager"))
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireRoleRejects(t *testing.T) {
    e := protectedEcho("admin")
    req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
    req.Header.Set("Authorization", bearerFor(t, 2, "user"))
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    assert.Equal(t, http.StatusForbidden, rec.Code)
}
