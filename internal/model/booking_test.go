package model

import (
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
)

func interval(h1, h2 int) (time.Time, time.Time) {
    return time.Date(2026, 9, 1, h1, 0, 0, 0, time.UTC),
        time.Date(2026, 9, 1, h2, 0, 0, 0, time.UTC)
}

func TestBookingOverlaps(t *testing.T) {
    s, e := interval(10, 12)
    b := Booking{StartTime: s, EndTime: e}

    cases := []struct {
        name   string
        h1, h2 int
        want   bool
    }{
        {"identical", 10, 12, true},
        {"contained", 10, 11, true},
        {"containing", 9, 13, true},
        {"left overlap", 9, 11, true},
        {"right overlap", 11, 13, true},
        {"touching before", 8, 10, false},
        {"touching after", 12, 14, false},
        {"disjoint before", 7, 9, false},
        {"disjoint after", 13, 15, false},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            start, end := interval(tc.h1, tc.h2)
            assert.Equal(t, tc.want, b.Overlaps(start, end))
        })
    }
}

func TestBookingStatusActive(t *testing.T) {
    assert.True(t, BookingPending.Active())
    assert.True(t, BookingConfirmed.Active())
    assert.False(t, BookingCancelled.Active())
}

func TestBookingStatusTransitions(t *testing.T) {
    assert.True(t, BookingPending.CanTransitionTo(BookingConfirmed))
    assert.True(t, BookingPending.CanTransitionTo(BookingCancelled))
    assert.True(t, BookingConfirmed.CanTransitionTo(BookingCancelled))

    // Cancelled is terminal.
    assert.False(t, BookingCancelled.CanTransitionTo(BookingPending))
    assert.False(t, BookingCancelled.CanTransitionTo(BookingConfirmed))
    assert.False(t, BookingConfirmed.CanTransitionTo(BookingPending))
}
