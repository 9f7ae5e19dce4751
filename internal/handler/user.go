package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/config"
    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/repository"
)

// UserHandler exposes account management.  Users manage their own
// profile; administration of other accounts is admin only.
type UserHandler struct {
    Cfg    config.Config
    Users  *repository.UserRepo
    Tokens *repository.TokenRepo
    MFA    *MFAHandler
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, tokens *repository.TokenRepo, mfa *MFAHandler) *UserHandler {
    return &UserHandler{Cfg: cfg, Users: users, Tokens: tokens, MFA: mfa}
}

// List returns every account.  Admin only.
func (h *UserHandler) List(c echo.Context) error {
    role, ok := getRole(c)
    if !ok || !role.CanAdministerUsers() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    users, err := h.Users.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
    }
    out := make([]userPart, 0, len(users))
    for _, u := range users {
        out = append(out, toUserPart(u))
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out})
}

// Get returns one account, visible to its owner and admins.
func (h *UserHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    role, _ := getRole(c)
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    if id != uid && !role.CanAdministerUsers() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    u, err := h.Users.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load user failed"})
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}

// Update edits an account.  Owners may change name, email and password;
// only admins may touch roles or other accounts.  A password change
// revokes every refresh token of the account.
func (h *UserHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    role, _ := getRole(c)
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    if id != uid && !role.CanAdministerUsers() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    var req struct {
        Name     *string `json:"name"`
        Email    *string `json:"email"`
        Password *string `json:"password"`
        Role     *string `json:"role"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    var up repository.UserUpdate
    up.Name = req.Name
    if req.Email != nil {
        lowered := strings.ToLower(strings.TrimSpace(*req.Email))
        up.Email = &lowered
    }
    if req.Password != nil {
        if *req.Password == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "password cannot be empty"})
        }
        up.Password = req.Password
    }
    if req.Role != nil {
        if !role.CanAdministerUsers() {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        parsed, ok := model.ParseRole(*req.Role)
        if !ok {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown role"})
        }
        // Admin is granted out of band, never through the API.
        if parsed == model.RoleAdmin {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "role admin cannot be assigned"})
        }
        up.Role = &parsed
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    u, err := h.Users.Update(ctx, id, up, h.Cfg.BcryptCost)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        case errors.Is(err, repository.ErrUsernameExists):
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already in use"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
    }
    if up.Password != nil {
        // Force a fresh login everywhere after a password change.
        _ = h.Tokens.RevokeAllForUser(ctx, id)
    }
    return c.JSON(http.StatusOK, toUserPart(u))
}

// Delete removes an account and, via FK cascade, its bookings, reviews
// and refresh tokens.  Admin only and MFA gated.
func (h *UserHandler) Delete(c echo.Context) error {
    role, ok := getRole(c)
    if !ok || !role.CanAdministerUsers() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }
    if err := h.MFA.Require(c, uid, MFAPurposeDeleteUser); err != nil {
        return err
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Users.Delete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
    }
    return c.NoContent(http.StatusNoContent)
}
