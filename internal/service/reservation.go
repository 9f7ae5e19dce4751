// Package service holds the reservation engine and the domain event
// publisher.  The engine owns the booking invariants; handlers do HTTP
// shaping, repositories do SQL.
package service

import (
    "context"
    "fmt"
    "time"

    "github.com/google/uuid"

    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/repository"
)

// SlotConflictError reports that the requested interval overlaps an
// existing active booking.  The conflicting booking's identity and
// interval are carried for diagnostics; retrying the same request will
// not succeed.
type SlotConflictError struct {
    BookingID uint64
    Reference string
    Start     time.Time
    End       time.Time
}

func (e *SlotConflictError) Error() string {
    return fmt.Sprintf("slot conflicts with booking %d [%s, %s)",
        e.BookingID, e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// ErrInvalidInterval is returned when a requested interval does not
// satisfy start < end.
var ErrInvalidInterval = fmt.Errorf("start time must be before end time")

// ErrRoomUnavailable is returned when the room is flagged out of
// service.  The flag is administrative; it says nothing about the
// booking calendar.
var ErrRoomUnavailable = fmt.Errorf("room is out of service")

// ReservationEngine decides whether bookings may be created and keeps
// the per-room non-overlap invariant.  It holds no state between calls;
// everything lives in the store, and each operation is a single store
// round trip (plus lock wait).
type ReservationEngine struct {
    store repository.ReservationStore
}

// NewReservationEngine builds an engine over the given store.
func NewReservationEngine(store repository.ReservationStore) *ReservationEngine {
    return &ReservationEngine{store: store}
}

// RequestBooking validates the interval and then, inside one
// transaction: locks the room row, verifies the availability flag,
// probes for an overlapping active booking and inserts the new booking
// as confirmed.  The room-row lock serializes concurrent attempts for
// the same room, so the check-then-insert sequence cannot race.
//
// Error kinds: ErrInvalidInterval, repository.ErrNotFound (room is
// gone), ErrRoomUnavailable, *SlotConflictError, repository.ErrBusy
// (lock contention, retryable).  Interval ordering is the only time
// policy enforced here; window rules (e.g. no bookings in the past)
// belong to the caller.
func (e *ReservationEngine) RequestBooking(ctx context.Context, roomID, userID uint64, start, end time.Time) (*model.Booking, error) {
    if !start.Before(end) {
        return nil, ErrInvalidInterval
    }
    booking := &model.Booking{
        Reference: uuid.New().String(),
        UserID:    userID,
        RoomID:    roomID,
        StartTime: start.UTC(),
        EndTime:   end.UTC(),
        Status:    model.BookingConfirmed,
    }
    err := e.store.InTransaction(ctx, func(tx repository.ReservationTx) error {
        status, err := tx.LockRoom(ctx, roomID)
        if err != nil {
            return err
        }
        if status != model.RoomAvailable {
            return ErrRoomUnavailable
        }
        conflict, err := tx.FirstOverlap(ctx, roomID, start, end)
        if err != nil {
            return err
        }
        if conflict != nil {
            return &SlotConflictError{
                BookingID: conflict.ID,
                Reference: conflict.Reference,
                Start:     conflict.StartTime,
                End:       conflict.EndTime,
            }
        }
        return tx.InsertBooking(ctx, booking)
    })
    if err != nil {
        return nil, err
    }
    return booking, nil
}

// CancelBooking soft-cancels a booking.  The requester must own the
// booking or hold a role that may cancel any booking.  Cancelling an
// already-cancelled booking succeeds silently; the status row is kept
// for audit and never deleted here.
//
// The returned flag reports whether this call performed the transition.
// The store applies the status change with an atomic guard, so of two
// racing cancels exactly one sees true; callers use the flag to publish
// the cancellation event exactly once.
func (e *ReservationEngine) CancelBooking(ctx context.Context, bookingID, requesterID uint64, role model.Role) (*model.Booking, bool, error) {
    b, err := e.store.GetBooking(ctx, bookingID)
    if err != nil {
        return nil, false, err
    }
    if b.UserID != requesterID && !role.CanCancelAnyBooking() {
        return nil, false, repository.ErrForbidden
    }
    if b.Status == model.BookingCancelled {
        return b, false, nil
    }
    if !b.Status.CanTransitionTo(model.BookingCancelled) {
        return nil, false, fmt.Errorf("booking %d cannot leave status %s", b.ID, b.Status)
    }
    changed, err := e.store.UpdateBookingStatus(ctx, bookingID, model.BookingCancelled)
    if err != nil {
        return nil, false, err
    }
    b.Status = model.BookingCancelled
    return b, changed, nil
}

// SetRoomAvailability flips the administrative availability flag.  Only
// room managers may call it.  The flip gates new booking attempts only;
// bookings that already exist are deliberately left untouched.
func (e *ReservationEngine) SetRoomAvailability(ctx context.Context, roomID uint64, available bool, role model.Role) error {
    if !role.CanManageRooms() {
        return repository.ErrForbidden
    }
    status := model.RoomOutOfService
    if available {
        status = model.RoomAvailable
    }
    return e.store.SetRoomStatus(ctx, roomID, status)
}
