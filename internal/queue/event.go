// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used for booking lifecycle events.
const (
    BookingConfirmedQueue = "booking.confirmed"
    BookingCancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published when a reservation is successfully
// created.  It contains enough information for downstream consumers to
// log, notify, or trigger analytics without querying the primary
// database.
type BookingConfirmedEvent struct {
    BookingID   uint64 `json:"booking_id"`
    Reference   string `json:"reference"`
    UserID      uint64 `json:"user_id"`
    RoomID      uint64 `json:"room_id"`
    RoomName    string `json:"room_name"`
    Location    string `json:"location"`
    StartsAt    string `json:"starts_at"`
    EndsAt      string `json:"ends_at"`
    ConfirmedAt string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is soft-cancelled.
// The row stays in the database; downstream systems may want to free
// dependent resources (catering, signage) on cancellation.
type BookingCancelledEvent struct {
    BookingID   uint64 `json:"booking_id"`
    Reference   string `json:"reference"`
    UserID      uint64 `json:"user_id"`
    RoomID      uint64 `json:"room_id"`
    StartsAt    string `json:"starts_at"`
    EndsAt      string `json:"ends_at"`
    CancelledBy uint64 `json:"cancelled_by"`
    CancelledAt string `json:"cancelled_at"`
}
