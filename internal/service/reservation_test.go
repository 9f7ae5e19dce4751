package service

import (
    "context"
    "errors"
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/repository"
)

// fakeStore is an in-memory ReservationStore.  A single mutex around
// InTransaction stands in for the database row lock, so concurrent
// booking attempts are serialized exactly like in MySQL.
type fakeStore struct {
    mu       sync.Mutex
    rooms    map[uint64]model.RoomStatus
    bookings map[uint64]*model.Booking
    nextID   uint64
}

func newFakeStore() *fakeStore {
    return &fakeStore{
        rooms:    map[uint64]model.RoomStatus{},
        bookings: map[uint64]*model.Booking{},
    }
}

type fakeTx struct{ s *fakeStore }

func (t *fakeTx) LockRoom(ctx context.Context, roomID uint64) (model.RoomStatus, error) {
    status, ok := t.s.rooms[roomID]
    if !ok {
        return "", repository.ErrNotFound
    }
    return status, nil
}

func (t *fakeTx) FirstOverlap(ctx context.Context, roomID uint64, start, end time.Time) (*model.Booking, error) {
    var first *model.Booking
    for _, b := range t.s.bookings {
        if b.RoomID != roomID || !b.Status.Active() || !b.Overlaps(start, end) {
            continue
        }
        if first == nil || b.StartTime.Before(first.StartTime) {
            first = b
        }
    }
    if first == nil {
        return nil, nil
    }
    cp := *first
    return &cp, nil
}

func (t *fakeTx) InsertBooking(ctx context.Context, b *model.Booking) error {
    t.s.nextID++
    b.ID = t.s.nextID
    b.CreatedAt = time.Now().UTC()
    cp := *b
    t.s.bookings[b.ID] = &cp
    return nil
}

func (s *fakeStore) InTransaction(ctx context.Context, fn func(tx repository.ReservationTx) error) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    return fn(&fakeTx{s: s})
}

func (s *fakeStore) GetBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok {
        return nil, repository.ErrNotFound
    }
    cp := *b
    return &cp, nil
}

func (s *fakeStore) UpdateBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.bookings[bookingID]
    if !ok {
        return false, repository.ErrNotFound
    }
    if b.Status == status {
        return false, nil
    }
    b.Status = status
    return true, nil
}

func (s *fakeStore) SetRoomStatus(ctx context.Context, roomID uint64, status model.RoomStatus) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.rooms[roomID]; !ok {
        return repository.ErrNotFound
    }
    s.rooms[roomID] = status
    return nil
}

func at(h int) time.Time {
    return time.Date(2026, 9, 1, h, 0, 0, 0, time.UTC)
}

func TestRequestBookingInvalidInterval(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    _, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(10))
    assert.ErrorIs(t, err, ErrInvalidInterval)

    _, err = engine.RequestBooking(context.Background(), 1, 7, at(11), at(10))
    assert.ErrorIs(t, err, ErrInvalidInterval)
    assert.Empty(t, store.bookings)
}

func TestRequestBookingRoomNotFound(t *testing.T) {
    engine := NewReservationEngine(newFakeStore())
    _, err := engine.RequestBooking(context.Background(), 99, 7, at(10), at(11))
    assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRequestBookingRoomOutOfService(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomOutOfService
    engine := NewReservationEngine(store)

    _, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    assert.ErrorIs(t, err, ErrRoomUnavailable)
    assert.Empty(t, store.bookings)
}

func TestRequestBookingSuccess(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    b, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    require.NoError(t, err)
    assert.NotZero(t, b.ID)
    assert.NotEmpty(t, b.Reference)
    assert.Equal(t, model.BookingConfirmed, b.Status)
    assert.Equal(t, uint64(7), b.UserID)
}

func TestRequestBookingTouchingIntervalsDoNotConflict(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    _, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    require.NoError(t, err)

    // [11,12) starts exactly when [10,11) ends: allowed.
    _, err = engine.RequestBooking(context.Background(), 1, 8, at(11), at(12))
    assert.NoError(t, err)

    // [9,10) ends exactly when [10,11) starts: allowed.
    _, err = engine.RequestBooking(context.Background(), 1, 9, at(9), at(10))
    assert.NoError(t, err)
}

func TestRequestBookingOverlapConflict(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    first, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(12))
    require.NoError(t, err)

    _, err = engine.RequestBooking(context.Background(), 1, 8, at(11), at(13))
    var conflict *SlotConflictError
    require.ErrorAs(t, err, &conflict)
    assert.Equal(t, first.ID, conflict.BookingID)
    assert.Equal(t, first.Reference, conflict.Reference)
    assert.True(t, conflict.Start.Equal(at(10)))
    assert.True(t, conflict.End.Equal(at(12)))
}

func TestRequestBookingCancelledDoesNotBlock(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    b, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(12))
    require.NoError(t, err)
    _, _, err = engine.CancelBooking(context.Background(), b.ID, 7, model.RoleUser)
    require.NoError(t, err)

    // The cancelled slot is free again.
    _, err = engine.RequestBooking(context.Background(), 1, 8, at(10), at(12))
    assert.NoError(t, err)
}

func TestRequestBookingDifferentRoomsIndependent(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    store.rooms[2] = model.RoomAvailable
    engine := NewReservationEngine(store)

    _, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(12))
    require.NoError(t, err)
    _, err = engine.RequestBooking(context.Background(), 2, 8, at(10), at(12))
    assert.NoError(t, err)
}

func TestRequestBookingConcurrentSameSlot(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    const attempts = 16
    var wg sync.WaitGroup
    errs := make([]error, attempts)
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, errs[i] = engine.RequestBooking(context.Background(), 1, uint64(100+i), at(10), at(11))
        }(i)
    }
    wg.Wait()

    wins, conflicts := 0, 0
    for _, err := range errs {
        var conflict *SlotConflictError
        switch {
        case err == nil:
            wins++
        case errors.As(err, &conflict):
            conflicts++
        default:
            t.Fatalf("unexpected error: %v", err)
        }
    }
    assert.Equal(t, 1, wins)
    assert.Equal(t, attempts-1, conflicts)
    assert.Len(t, store.bookings, 1)
}

func TestCancelBookingOwner(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    b, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    require.NoError(t, err)

    got, changed, err := engine.CancelBooking(context.Background(), b.ID, 7, model.RoleUser)
    require.NoError(t, err)
    assert.True(t, changed)
    assert.Equal(t, model.BookingCancelled, got.Status)

    stored, err := store.GetBooking(context.Background(), b.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, stored.Status)
}

func TestCancelBookingIdempotent(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    b, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    require.NoError(t, err)

    _, changed, err := engine.CancelBooking(context.Background(), b.ID, 7, model.RoleUser)
    require.NoError(t, err)
    assert.True(t, changed)
    // A second cancel succeeds, reports no transition and leaves the
    // status unchanged.
    got, changed, err := engine.CancelBooking(context.Background(), b.ID, 7, model.RoleUser)
    require.NoError(t, err)
    assert.False(t, changed)
    assert.Equal(t, model.BookingCancelled, got.Status)
}

func TestCancelBookingConcurrentSingleTransition(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    b, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    require.NoError(t, err)

    // Racing cancels must all succeed, but exactly one may claim the
    // transition: that flag drives the cancellation event publish.
    const attempts = 8
    var wg sync.WaitGroup
    flags := make([]bool, attempts)
    errs := make([]error, attempts)
    for i := 0; i < attempts; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            _, flags[i], errs[i] = engine.CancelBooking(context.Background(), b.ID, 7, model.RoleUser)
        }(i)
    }
    wg.Wait()

    transitions := 0
    for i := 0; i < attempts; i++ {
        require.NoError(t, errs[i])
        if flags[i] {
            transitions++
        }
    }
    assert.Equal(t, 1, transitions)
}

func TestCancelBookingForbiddenForStranger(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    b, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    require.NoError(t, err)

    _, _, err = engine.CancelBooking(context.Background(), b.ID, 8, model.RoleUser)
    assert.ErrorIs(t, err, repository.ErrForbidden)

    stored, err := store.GetBooking(context.Background(), b.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingConfirmed, stored.Status)
}

func TestCancelBookingManagerMayCancelAny(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    b, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    require.NoError(t, err)

    got, _, err := engine.CancelBooking(context.Background(), b.ID, 999, model.RoleFacilityManager)
    require.NoError(t, err)
    assert.Equal(t, model.BookingCancelled, got.Status)
}

func TestCancelBookingNotFound(t *testing.T) {
    engine := NewReservationEngine(newFakeStore())
    _, _, err := engine.CancelBooking(context.Background(), 42, 7, model.RoleAdmin)
    assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetRoomAvailabilityRoleGate(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    err := engine.SetRoomAvailability(context.Background(), 1, false, model.RoleUser)
    assert.ErrorIs(t, err, repository.ErrForbidden)
    assert.Equal(t, model.RoomAvailable, store.rooms[1])

    err = engine.SetRoomAvailability(context.Background(), 1, false, model.RoleFacilityManager)
    require.NoError(t, err)
    assert.Equal(t, model.RoomOutOfService, store.rooms[1])

    // New bookings are rejected while the flag is down.
    _, err = engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    assert.ErrorIs(t, err, ErrRoomUnavailable)

    err = engine.SetRoomAvailability(context.Background(), 1, true, model.RoleAdmin)
    require.NoError(t, err)
    _, err = engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    assert.NoError(t, err)
}

func TestSetRoomAvailabilityNotFound(t *testing.T) {
    engine := NewReservationEngine(newFakeStore())
    err := engine.SetRoomAvailability(context.Background(), 5, false, model.RoleAdmin)
    assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetRoomAvailabilityKeepsExistingBookings(t *testing.T) {
    store := newFakeStore()
    store.rooms[1] = model.RoomAvailable
    engine := NewReservationEngine(store)

    b, err := engine.RequestBooking(context.Background(), 1, 7, at(10), at(11))
    require.NoError(t, err)

    require.NoError(t, engine.SetRoomAvailability(context.Background(), 1, false, model.RoleAdmin))

    stored, err := store.GetBooking(context.Background(), b.ID)
    require.NoError(t, err)
    assert.Equal(t, model.BookingConfirmed, stored.Status)
}
