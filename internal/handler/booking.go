package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/config"
    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/queue"
    "github.com/iliyamo/room-reservation/internal/repository"
    "github.com/iliyamo/room-reservation/internal/service"
)

// BookingHandler is the HTTP face of the reservation engine.  The
// engine owns the conflict rules; this layer parses intervals, applies
// the booking-window policy and maps engine errors onto status codes.
type BookingHandler struct {
    Cfg      config.Config
    Engine   *service.ReservationEngine
    Bookings *repository.BookingRepo
    Rooms    *repository.RoomRepo
    MFA      *MFAHandler
}

func NewBookingHandler(cfg config.Config, engine *service.ReservationEngine, bookings *repository.BookingRepo, rooms *repository.RoomRepo, mfa *MFAHandler) *BookingHandler {
    return &BookingHandler{Cfg: cfg, Engine: engine, Bookings: bookings, Rooms: rooms, MFA: mfa}
}

type bookingReq struct {
    RoomID    uint64 `json:"room_id"`
    StartTime string `json:"start_time"` // RFC 3339
    EndTime   string `json:"end_time"`   // RFC 3339
}

func parseInterval(startRaw, endRaw string) (start, end time.Time, err error) {
    start, err = time.Parse(time.RFC3339, startRaw)
    if err != nil {
        return
    }
    end, err = time.Parse(time.RFC3339, endRaw)
    return
}

// checkWindow applies the configurable booking-window policy.  It is a
// handler concern: the engine only guarantees interval ordering and
// non-overlap.
func (h *BookingHandler) checkWindow(start time.Time) string {
    now := time.Now().UTC()
    if h.Cfg.MinLeadMin > 0 && start.Before(now.Add(time.Duration(h.Cfg.MinLeadMin)*time.Minute)) {
        return "booking starts too soon"
    }
    if h.Cfg.MaxAdvanceDays > 0 && start.After(now.AddDate(0, 0, h.Cfg.MaxAdvanceDays)) {
        return "booking starts too far in the future"
    }
    return ""
}

// Create books a room for the authenticated user.  Conflict responses
// carry the blocking booking's id and interval so clients can offer the
// next free slot.
func (h *BookingHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req bookingReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.RoomID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "room_id required"})
    }
    start, end, err := parseInterval(req.StartTime, req.EndTime)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start_time/end_time must be RFC 3339"})
    }
    if msg := h.checkWindow(start.UTC()); msg != "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
    defer cancel()

    b, err := h.Engine.RequestBooking(ctx, req.RoomID, uid, start, end)
    if err != nil {
        var conflict *service.SlotConflictError
        switch {
        case errors.Is(err, service.ErrInvalidInterval):
            return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
        case errors.Is(err, repository.ErrNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        case errors.Is(err, service.ErrRoomUnavailable):
            return c.JSON(http.StatusConflict, echo.Map{"error": "room is out of service"})
        case errors.As(err, &conflict):
            return c.JSON(http.StatusConflict, echo.Map{
                "error": "slot conflict",
                "conflict": echo.Map{
                    "booking_id": conflict.BookingID,
                    "reference":  conflict.Reference,
                    "start_time": conflict.Start,
                    "end_time":   conflict.End,
                },
            })
        case errors.Is(err, repository.ErrBusy):
            c.Response().Header().Set("Retry-After", "1")
            return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "booking store busy, retry"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
    }

    h.publishConfirmed(c, b)
    return c.JSON(http.StatusCreated, b)
}

// publishConfirmed emits the booking.confirmed event.  Publishing is
// best effort: the booking is already durable in MySQL, so a broker
// outage only costs downstream notifications.
func (h *BookingHandler) publishConfirmed(c echo.Context, b *model.Booking) {
    ev := queue.BookingConfirmedEvent{
        BookingID:   b.ID,
        Reference:   b.Reference,
        UserID:      b.UserID,
        RoomID:      b.RoomID,
        StartsAt:    b.StartTime.Format(time.RFC3339),
        EndsAt:      b.EndTime.Format(time.RFC3339),
        ConfirmedAt: time.Now().UTC().Format(time.RFC3339),
    }
    ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
    if rm, err := h.Rooms.GetByID(ctx, b.RoomID); err == nil {
        ev.RoomName = rm.Name
        ev.Location = rm.Location
    }
    cancel()
    logger := c.Logger()
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        if err := service.PublishBookingConfirmed(ctx, ev); err != nil {
            logger.Warnf("[events] publish booking.confirmed %s failed: %v", ev.Reference, err)
        }
    }()
}

// ListAll returns every booking.  Restricted to roles that may see
// other users' calendars.
func (h *BookingHandler) ListAll(c echo.Context) error {
    role, ok := getRole(c)
    if !ok || !role.CanViewAllBookings() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    bookings, err := h.Bookings.ListAll(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// My returns the caller's active bookings.
func (h *BookingHandler) My(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    bookings, err := h.Bookings.ListByUser(ctx, uid, true)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// History returns all of the caller's bookings including cancelled ones.
func (h *BookingHandler) History(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    bookings, err := h.Bookings.ListByUser(ctx, uid, false)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// ListByRoom returns the booking calendar of one room.
func (h *BookingHandler) ListByRoom(c echo.Context) error {
    role, ok := getRole(c)
    if !ok || !role.CanViewAllBookings() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    roomID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    bookings, err := h.Bookings.ListByRoom(ctx, roomID)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list bookings failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// Get returns one booking.  Visible to its owner and to the wide-view
// roles.
func (h *BookingHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    role, _ := getRole(c)
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    b, err := h.Bookings.GetBooking(ctx, id)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load booking failed"})
    }
    if b.UserID != uid && !role.CanViewAllBookings() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return c.JSON(http.StatusOK, b)
}

// Cancel soft-cancels a booking through the engine.  Repeating the call
// on an already-cancelled booking succeeds and publishes nothing.
func (h *BookingHandler) Cancel(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    role, _ := getRole(c)
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    b, changed, err := h.Engine.CancelBooking(ctx, id, uid, role)
    if err != nil {
        switch {
        case errors.Is(err, repository.ErrNotFound):
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        case errors.Is(err, repository.ErrForbidden):
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel booking failed"})
    }
    // The engine reports whether this call performed the transition, so
    // the event fires exactly once even under concurrent cancels.
    if changed {
        h.publishCancelled(c, b, uid)
    }
    return c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) publishCancelled(c echo.Context, b *model.Booking, cancelledBy uint64) {
    ev := queue.BookingCancelledEvent{
        BookingID:   b.ID,
        Reference:   b.Reference,
        UserID:      b.UserID,
        RoomID:      b.RoomID,
        StartsAt:    b.StartTime.Format(time.RFC3339),
        EndsAt:      b.EndTime.Format(time.RFC3339),
        CancelledBy: cancelledBy,
        CancelledAt: time.Now().UTC().Format(time.RFC3339),
    }
    logger := c.Logger()
    go func() {
        ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
        defer cancel()
        if err := service.PublishBookingCancelled(ctx, ev); err != nil {
            logger.Warnf("[events] publish booking.cancelled %s failed: %v", ev.Reference, err)
        }
    }()
}

// HardDelete removes a booking row entirely.  Admin only, MFA gated;
// normal workflows should cancel instead so the audit trail survives.
func (h *BookingHandler) HardDelete(c echo.Context) error {
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
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
    }
    if err := h.MFA.Require(c, uid, MFAPurposeDeleteBooking); err != nil {
        return err
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Bookings.HardDelete(ctx, id); err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete booking failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Availability probes whether a room is free for an interval without
// creating anything.  The answer is advisory; only Create, which locks
// the room row, is authoritative.
func (h *BookingHandler) Availability(c echo.Context) error {
    roomID, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    start, end, err := parseInterval(c.QueryParam("start"), c.QueryParam("end"))
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start/end must be RFC 3339"})
    }
    if !start.Before(end) {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "start must be before end"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rm, err := h.Rooms.GetByID(ctx, roomID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    if rm.Status != model.RoomAvailable {
        return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "available": false, "reason": "out_of_service"})
    }
    free, err := h.Bookings.IsSlotFree(ctx, roomID, start, end)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "availability check failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"room_id": roomID, "available": free})
}
