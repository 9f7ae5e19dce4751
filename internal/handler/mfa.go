package handler

import (
    "context"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/room-reservation/internal/utils"
)

// MFA challenge purposes.  A code minted for one purpose never verifies
// for another.
const (
    MFAPurposeDeleteBooking = "delete_booking"
    MFAPurposeDeleteRoom    = "delete_room"
    MFAPurposeDeleteUser    = "delete_user"
)

// Headers destructive endpoints read to verify a challenge.
const (
    mfaChallengeHeader = "X-MFA-Challenge"
    mfaCodeHeader      = "X-MFA-Code"
)

// MFAHandler issues and verifies short-lived one-time codes stored in
// Redis.  A challenge binds a user to a purpose; the code is single use
// and expires after TTL.  Without Redis, MFA (and therefore every
// destructive endpoint gated on it) is unavailable.
type MFAHandler struct {
    RDB *redis.Client
    TTL time.Duration
}

func NewMFAHandler(rdb *redis.Client, ttl time.Duration) *MFAHandler {
    if ttl <= 0 {
        ttl = 5 * time.Minute
    }
    return &MFAHandler{RDB: rdb, TTL: ttl}
}

func mfaKey(challengeID string) string { return "mfa:" + challengeID }

type mfaChallengeReq struct {
    Purpose string `json:"purpose"`
}

// Challenge mints a new MFA code for the authenticated user and the
// requested purpose.  The code is delivered out of band (here: the
// server log stands in for an SMS/mail provider); the response carries
// only the challenge id and expiry.
func (h *MFAHandler) Challenge(c echo.Context) error {
    if h.RDB == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "mfa unavailable"})
    }
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req mfaChallengeReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    purpose := strings.TrimSpace(req.Purpose)
    switch purpose {
    case MFAPurposeDeleteBooking, MFAPurposeDeleteRoom, MFAPurposeDeleteUser:
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown purpose"})
    }

    code, err := utils.NewOTPCode()
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue code failed"})
    }
    challengeID := uuid.New().String()

    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    // One value per challenge keyed by a random id; SETEX gives us the
    // TTL and GETDEL on verify gives us single use.
    val := fmt.Sprintf("%d:%s:%s", uid, purpose, code)
    if err := h.RDB.SetEx(ctx, mfaKey(challengeID), val, h.TTL).Err(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store challenge failed"})
    }

    // Delivery channel stand-in.
    c.Logger().Infof("[mfa] user=%d purpose=%s challenge=%s code=%s", uid, purpose, challengeID, code)

    return c.JSON(http.StatusCreated, echo.Map{
        "challenge_id": challengeID,
        "purpose":      purpose,
        "expires_in":   int(h.TTL.Seconds()),
    })
}

// Require verifies the challenge/code headers for the given purpose and
// user.  The challenge is consumed whether or not the code matches, so
// a wrong guess costs the caller a fresh challenge.
func (h *MFAHandler) Require(c echo.Context, uid uint64, purpose string) error {
    if h.RDB == nil {
        return echo.NewHTTPError(http.StatusServiceUnavailable, "mfa unavailable")
    }
    challengeID := strings.TrimSpace(c.Request().Header.Get(mfaChallengeHeader))
    code := strings.TrimSpace(c.Request().Header.Get(mfaCodeHeader))
    if challengeID == "" || code == "" {
        return echo.NewHTTPError(http.StatusUnauthorized, "mfa challenge and code required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    val, err := h.RDB.GetDel(ctx, mfaKey(challengeID)).Result()
    if err == redis.Nil {
        return echo.NewHTTPError(http.StatusUnauthorized, "mfa challenge expired or unknown")
    }
    if err != nil {
        return echo.NewHTTPError(http.StatusInternalServerError, "mfa lookup failed")
    }
    if val != fmt.Sprintf("%d:%s:%s", uid, purpose, code) {
        return echo.NewHTTPError(http.StatusUnauthorized, "mfa verification failed")
    }
    return nil
}
