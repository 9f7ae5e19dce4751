package handler

import (
    "context"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/repository"
    "github.com/iliyamo/room-reservation/internal/service"
)

// RoomHandler exposes room CRUD, search and the availability flag.
// Write operations require a room-manager role; reads are open to any
// authenticated user.
type RoomHandler struct {
    Rooms  *repository.RoomRepo
    Engine *service.ReservationEngine
    MFA    *MFAHandler
}

func NewRoomHandler(rooms *repository.RoomRepo, engine *service.ReservationEngine, mfa *MFAHandler) *RoomHandler {
    return &RoomHandler{Rooms: rooms, Engine: engine, MFA: mfa}
}

type roomReq struct {
    Name      string          `json:"name"`
    Capacity  uint32          `json:"capacity"`
    Equipment model.Equipment `json:"equipment"`
    Location  string          `json:"location"`
}

// Create adds a new room.  Names are unique; capacity must be positive.
func (h *RoomHandler) Create(c echo.Context) error {
    role, ok := getRole(c)
    if !ok || !role.CanManageRooms() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    var req roomReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" || req.Capacity == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and positive capacity required"})
    }
    if req.Equipment == nil {
        req.Equipment = model.Equipment{}
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rm, err := h.Rooms.Create(ctx, &model.Room{
        Name:      req.Name,
        Capacity:  req.Capacity,
        Equipment: req.Equipment,
        Location:  strings.TrimSpace(req.Location),
        Status:    model.RoomAvailable,
    })
    if err != nil {
        if err == repository.ErrRoomNameExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "room name already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create room failed"})
    }
    return c.JSON(http.StatusCreated, rm)
}

// List returns every room regardless of status.
func (h *RoomHandler) List(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rooms, err := h.Rooms.List(ctx)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Get returns one room by id.
func (h *RoomHandler) Get(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rm, err := h.Rooms.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    return c.JSON(http.StatusOK, rm)
}

// Available searches rooms that are in service and match the filter.
// Query parameters: min_capacity, location, equipment.  The equipment
// parameter is a comma list of `name` or `name:count` entries, e.g.
// `?equipment=projector,chairs:10`.
func (h *RoomHandler) Available(c echo.Context) error {
    var f repository.RoomFilter
    if s := c.QueryParam("min_capacity"); s != "" {
        n, err := strconv.ParseUint(s, 10, 32)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid min_capacity"})
        }
        f.MinCapacity = uint32(n)
    }
    f.Location = strings.TrimSpace(c.QueryParam("location"))
    if s := c.QueryParam("equipment"); s != "" {
        f.Equipment = model.Equipment{}
        for _, part := range strings.Split(s, ",") {
            part = strings.TrimSpace(part)
            if part == "" {
                continue
            }
            if name, count, found := strings.Cut(part, ":"); found {
                n, err := strconv.Atoi(count)
                if err != nil || n < 1 {
                    return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid equipment count"})
                }
                f.Equipment[name] = model.CountOf(n)
            } else {
                f.Equipment[part] = model.TextOf("")
            }
        }
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rooms, err := h.Rooms.ListAvailable(ctx, f)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search rooms failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"rooms": rooms})
}

// Update applies a partial update to a room.
func (h *RoomHandler) Update(c echo.Context) error {
    role, ok := getRole(c)
    if !ok || !role.CanManageRooms() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    var req struct {
        Name      *string          `json:"name"`
        Capacity  *uint32          `json:"capacity"`
        Equipment *model.Equipment `json:"equipment"`
        Location  *string          `json:"location"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Capacity != nil && *req.Capacity == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "capacity must be positive"})
    }
    if req.Name != nil {
        trimmed := strings.TrimSpace(*req.Name)
        if trimmed == "" {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "name cannot be empty"})
        }
        req.Name = &trimmed
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rm, err := h.Rooms.Update(ctx, id, repository.RoomUpdate{
        Name:      req.Name,
        Capacity:  req.Capacity,
        Equipment: req.Equipment,
        Location:  req.Location,
    })
    if err != nil {
        switch err {
        case repository.ErrNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        case repository.ErrRoomNameExists:
            return c.JSON(http.StatusConflict, echo.Map{"error": "room name already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update room failed"})
    }
    return c.JSON(http.StatusOK, rm)
}

// Delete hard-deletes a room and, via FK cascade, its bookings and
// reviews.  Destructive, so it is gated behind an MFA challenge.
func (h *RoomHandler) Delete(c echo.Context) error {
    role, ok := getRole(c)
    if !ok || !role.CanManageRooms() {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    if err := h.MFA.Require(c, uid, MFAPurposeDeleteRoom); err != nil {
        return err
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Rooms.Delete(ctx, id); err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete room failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// GetStatus returns only the availability flag.
func (h *RoomHandler) GetStatus(c echo.Context) error {
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    rm, err := h.Rooms.GetByID(ctx, id)
    if err != nil {
        if err == repository.ErrNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load room failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"id": rm.ID, "status": rm.Status})
}

// SetStatus flips the availability flag through the engine, which
// enforces the role gate.  Existing bookings are left untouched.
func (h *RoomHandler) SetStatus(c echo.Context) error {
    role, ok := getRole(c)
    if !ok {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    id, err := pathID(c, "id")
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
    }
    var req struct {
        Status string `json:"status"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    var available bool
    switch model.RoomStatus(req.Status) {
    case model.RoomAvailable:
        available = true
    case model.RoomOutOfService:
        available = false
    default:
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be available or out_of_service"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Engine.SetRoomAvailability(ctx, id, available, role); err != nil {
        switch err {
        case repository.ErrForbidden:
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        case repository.ErrNotFound:
            return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "set status failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"id": id, "status": req.Status})
}
