package model

import "time"

// BookingStatus is the lifecycle state of a booking.  The only legal
// transitions are pending→confirmed and {pending,confirmed}→cancelled;
// cancelled is terminal.  Creation through the reservation engine
// currently produces confirmed bookings directly, pending is reserved
// for a future approval workflow.
type BookingStatus string

const (
    BookingPending   BookingStatus = "pending"
    BookingConfirmed BookingStatus = "confirmed"
    BookingCancelled BookingStatus = "cancelled"
)

// Active reports whether the booking occupies its slot for overlap
// purposes.  Cancelled bookings are soft-deleted for audit and never
// conflict with new requests.
func (s BookingStatus) Active() bool {
    return s == BookingPending || s == BookingConfirmed
}

// CanTransitionTo reports whether moving from s to next is a legal
// state-machine step.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
    switch s {
    case BookingPending:
        return next == BookingConfirmed || next == BookingCancelled
    case BookingConfirmed:
        return next == BookingCancelled
    }
    return false
}

// Booking mirrors the `bookings` table.
//
// Fields:
//  ID        – primary key identifier.
//  Reference – externally visible UUID for the booking.
//  UserID    – owning user (FK, cascades on user delete).
//  RoomID    – booked room (FK, cascades on room delete).
//  StartTime – inclusive start of the reserved interval, UTC.
//  EndTime   – exclusive end of the reserved interval, UTC.
//  Status    – lifecycle state.
//  CreatedAt – creation timestamp.
type Booking struct {
    ID        uint64        `json:"id"`
    Reference string        `json:"reference"`
    UserID    uint64        `json:"user_id"`
    RoomID    uint64        `json:"room_id"`
    StartTime time.Time     `json:"start_time"`
    EndTime   time.Time     `json:"end_time"`
    Status    BookingStatus `json:"status"`
    CreatedAt time.Time     `json:"created_at"`
}

// Overlaps applies the half-open interval test to the booking against
// [start, end): two intervals conflict iff each starts before the other
// ends.  A booking ending exactly when another starts does not conflict.
func (b Booking) Overlaps(start, end time.Time) bool {
    return b.StartTime.Before(end) && start.Before(b.EndTime)
}
