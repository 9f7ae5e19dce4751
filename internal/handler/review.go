package handler

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/repository"
)

// ReviewHandler covers room reviews and their moderation flags.
// Reviews never touch the reservation engine; a flagged or removed
// review only changes what listings show.
type ReviewHandler struct {
    Reviews *repository.ReviewRepo
    Rooms   *repository.RoomRepo
}

func NewReviewHandler(reviews *repository.ReviewRepo, rooms *repository.RoomRepo) *ReviewHandler {
    return &ReviewHandler{Reviews: reviews, Rooms: rooms}
}

type reviewReq struct {
    Rating  int    `json:"rating"`
    Comment string `json:"comment"`
}

// Create posts a review for a room.
func (h *ReviewHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    roomID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    var req reviewReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if !model.ValidRating(req.Rating) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    // The FK would catch a missing room too, but a deliberate probe
    // gives the client a clean 404 instead of a 500.
    if _, err := h.Rooms.GetByID(ctx, roomID); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    rv, err := h.Reviews.Create(ctx, &model.Review{
        UserID:  uid,
        RoomID:  roomID,
        Rating:  uint8(req.Rating),
        Comment: strings.TrimSpace(req.Comment),
    })
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
    }
    return c.JSON(http.StatusCreated, rv)
}

// ListByRoom returns a room's reviews.  Moderators also see flagged and
// removed entries; everyone else gets the public view.
func (h *ReviewHandler) ListByRoom(c echo.Context) error {
    roomID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    role, _ := getRole(c)
    includeHidden := role.CanModerateReviews()

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    reviews, err := h.Reviews.ListByRoom(ctx, roomID, includeHidden)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reviews failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reviews": reviews})
}

// My returns the caller's reviews including hidden ones.
func (h *ReviewHandler) My(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    reviews, err := h.Reviews.ListByUser(ctx, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reviews failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"reviews": reviews})
}

// Update edits the caller's own review.
func (h *ReviewHandler) Update(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
    }
    var req struct {
        Rating  *int    `json:"rating"`
        Comment *string `json:"comment"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    var up repository.ReviewUpdate
    if req.Rating != nil {
        if !model.ValidRating(*req.Rating) {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
        }
        r8 := uint8(*req.Rating)
        up.Rating = &r8
    }
    up.Comment = req.Comment

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    existing, err := h.Reviews.GetByID(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load review failed"})
    }
    if existing.UserID != uid {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    rv, err := h.Reviews.Update(ctx, id, up)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update review failed"})
    }
    return c.JSON(http.StatusOK, rv)
}

type flagReq struct {
    Reason string `json:"reason"`
}

// Flag marks a review for moderation with an optional reason.
func (h *ReviewHandler) Flag(c echo.Context) error {
    return h.setFlag(c, true)
}

// Unflag clears the moderation flag.
func (h *ReviewHandler) Unflag(c echo.Context) error {
    return h.setFlag(c, false)
}

func (h *ReviewHandler) setFlag(c echo.Context, flagged bool) error {
    role, ok := getRole(c)
    if !ok || !role.CanModerateReviews() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
    }
    var req flagReq
    _ = c.Bind(&req)
    reason := ""
    if flagged {
        reason = strings.TrimSpace(req.Reason)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rv, err := h.Reviews.SetFlag(ctx, id, flagged, reason)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "flag review failed"})
    }
    return c.JSON(http.StatusOK, rv)
}

// Remove soft-removes a review from public listings.
func (h *ReviewHandler) Remove(c echo.Context) error {
    return h.setRemoved(c, true)
}

// Restore reverses a soft removal.
func (h *ReviewHandler) Restore(c echo.Context) error {
    return h.setRemoved(c, false)
}

func (h *ReviewHandler) setRemoved(c echo.Context, removed bool) error {
    role, ok := getRole(c)
    if !ok || !role.CanModerateReviews() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid review id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rv, err := h.Reviews.SetRemoved(ctx, id, removed)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "review not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update review failed"})
    }
    return c.JSON(http.StatusOK, rv)
}
