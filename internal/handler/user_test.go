package handler

import (
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

// updateCtx builds an echo context for PATCH /v1/users/:id carrying the
// identity JWTAuth would have stored.  Validation in Update runs before
// any repository call, so the handler needs no database here.
func updateCtx(t *testing.T, targetID string, userID float64, role, body string) (echo.Context, *httptest.ResponseRecorder) {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPatch, "/v1/users/"+targetID, strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/users/:id")
    c.SetParamNames("id")
    c.SetParamValues(targetID)
    c.Set("user_id", userID)
    c.Set("role", role)
    return c, rec
}

func TestUserUpdateRejectsAdminElevation(t *testing.T) {
    h := &UserHandler{}
    c, rec := updateCtx(t, "2", 1, "admin", `{"role":"admin"}`)

    require.NoError(t, h.Update(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
    assert.Contains(t, rec.Body.String(), "admin")
}

func TestUserUpdateRoleRequiresAdmin(t *testing.T) {
    h := &UserHandler{}
    // A user touching their own role is still rejected.
    c, rec := updateCtx(t, "7", 7, "user", `{"role":"moderator"}`)

    require.NoError(t, h.Update(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserUpdateUnknownRole(t *testing.T) {
    h := &UserHandler{}
    c, rec := updateCtx(t, "2", 1, "admin", `{"role":"superuser"}`)

    require.NoError(t, h.Update(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserUpdateForeignAccountForbidden(t *testing.T) {
    h := &UserHandler{}
    c, rec := updateCtx(t, "2", 7, "user", `{"name":"Mallory"}`)

    require.NoError(t, h.Update(c))
    assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUserUpdateEmptyPassword(t *testing.T) {
    h := &UserHandler{}
    c, rec := updateCtx(t, "7", 7, "user", `{"password":""}`)

    require.NoError(t, h.Update(c))
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}
