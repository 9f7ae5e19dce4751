package repository

import (
    "context"
    "database/sql"
    "time"

    "github.com/iliyamo/room-reservation/internal/model"
)

// ReservationTx is the slice of the store the reservation engine sees
// while its transaction is open.  All three steps run against the same
// *sql.Tx so the room-row lock taken by LockRoom serializes concurrent
// reservation attempts for that room until commit or rollback.
type ReservationTx interface {
    // LockRoom reads the room's availability flag with SELECT ... FOR
    // UPDATE, blocking other reservation transactions on the same room.
    // Returns ErrNotFound for a missing room and ErrBusy on lock
    // contention.
    LockRoom(ctx context.Context, roomID uint64) (model.RoomStatus, error)
    // FirstOverlap returns one active booking whose [start,end) interval
    // overlaps the requested one, or nil when the slot is free.
    FirstOverlap(ctx context.Context, roomID uint64, start, end time.Time) (*model.Booking, error)
    // InsertBooking persists the booking and fills in ID and CreatedAt.
    InsertBooking(ctx context.Context, b *model.Booking) error
}

// ReservationStore is the persistence contract of the reservation
// engine.  BookingRepo is the MySQL implementation; engine tests use an
// in-memory fake.
type ReservationStore interface {
    InTransaction(ctx context.Context, fn func(tx ReservationTx) error) error
    GetBooking(ctx context.Context, bookingID uint64) (*model.Booking, error)
    // UpdateBookingStatus moves the booking into status and reports
    // whether the row actually changed.  The guard is atomic: of two
    // concurrent calls with the same target status, exactly one
    // observes true.
    UpdateBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) (bool, error)
    SetRoomStatus(ctx context.Context, roomID uint64, status model.RoomStatus) error
}

// BookingRepo provides persistence for bookings and implements
// ReservationStore on top of MySQL.  All timestamps are stored in UTC.
type BookingRepo struct {
    db    *sql.DB
    rooms *RoomRepo
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB, rooms *RoomRepo) *BookingRepo {
    return &BookingRepo{db: db, rooms: rooms}
}

const bookingColumns = `id, reference, user_id, room_id, start_time, end_time, status, created_at`

func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
    var b model.Booking
    if err := row.Scan(&b.ID, &b.Reference, &b.UserID, &b.RoomID, &b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt); err != nil {
        return nil, err
    }
    b.StartTime = b.StartTime.UTC()
    b.EndTime = b.EndTime.UTC()
    return &b, nil
}

// bookingTx wraps a single open transaction for the reservation engine.
type bookingTx struct {
    tx *sql.Tx
}

func (t *bookingTx) LockRoom(ctx context.Context, roomID uint64) (model.RoomStatus, error) {
    var status model.RoomStatus
    err := t.tx.QueryRowContext(ctx,
        `SELECT status FROM rooms WHERE id = ? FOR UPDATE`, roomID).Scan(&status)
    if err == sql.ErrNoRows {
        return "", ErrNotFound
    }
    if err != nil {
        return "", translateLockErr(err)
    }
    return status, nil
}

func (t *bookingTx) FirstOverlap(ctx context.Context, roomID uint64, start, end time.Time) (*model.Booking, error) {
    // Half-open interval test: touching bookings (end == start) do not
    // conflict. Cancelled rows are excluded, they only remain for audit.
    row := t.tx.QueryRowContext(ctx,
        `SELECT `+bookingColumns+` FROM bookings
         WHERE room_id = ? AND status IN ('pending','confirmed')
           AND start_time < ? AND end_time > ?
         ORDER BY start_time LIMIT 1`,
        roomID, end.UTC(), start.UTC())
    b, err := scanBooking(row)
    if err == sql.ErrNoRows {
        return nil, nil
    }
    if err != nil {
        return nil, translateLockErr(err)
    }
    return b, nil
}

func (t *bookingTx) InsertBooking(ctx context.Context, b *model.Booking) error {
    res, err := t.tx.ExecContext(ctx,
        `INSERT INTO bookings (reference, user_id, room_id, start_time, end_time, status) VALUES (?,?,?,?,?,?)`,
        b.Reference, b.UserID, b.RoomID, b.StartTime.UTC(), b.EndTime.UTC(), b.Status)
    if err != nil {
        return translateLockErr(err)
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)
    return t.tx.QueryRowContext(ctx,
        `SELECT created_at FROM bookings WHERE id = ?`, b.ID).Scan(&b.CreatedAt)
}

// InTransaction runs fn inside a single transaction and commits when it
// returns nil.  Lock contention on commit is reported as ErrBusy.
func (r *BookingRepo) InTransaction(ctx context.Context, fn func(tx ReservationTx) error) error {
    tx, err := r.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(&bookingTx{tx: tx}); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return translateLockErr(err)
    }
    committed = true
    return nil
}

// GetBooking returns a booking by primary key or ErrNotFound.
func (r *BookingRepo) GetBooking(ctx context.Context, bookingID uint64) (*model.Booking, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, bookingID)
    b, err := scanBooking(row)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    return b, err
}

// UpdateBookingStatus sets the lifecycle state of a booking.  The row is
// never deleted here; cancellation keeps history for audit.  The WHERE
// guard makes the transition atomic: a booking already in the target
// status is left alone and reported as unchanged, so concurrent cancels
// cannot both claim the transition.
func (r *BookingRepo) UpdateBookingStatus(ctx context.Context, bookingID uint64, status model.BookingStatus) (bool, error) {
    res, err := r.db.ExecContext(ctx,
        `UPDATE bookings SET status = ? WHERE id = ? AND status <> ?`, status, bookingID, status)
    if err != nil {
        return false, err
    }
    if n, _ := res.RowsAffected(); n > 0 {
        return true, nil
    }
    // No row changed: either the booking is already in the target
    // status, or it does not exist at all.
    var exists uint64
    if err := r.db.QueryRowContext(ctx, `SELECT id FROM bookings WHERE id = ?`, bookingID).Scan(&exists); err == sql.ErrNoRows {
        return false, ErrNotFound
    } else if err != nil {
        return false, err
    }
    return false, nil
}

// SetRoomStatus delegates to the room repository so the engine has a
// single store dependency.
func (r *BookingRepo) SetRoomStatus(ctx context.Context, roomID uint64, status model.RoomStatus) error {
    return r.rooms.SetStatus(ctx, roomID, status)
}

// ListAll returns every booking ever made, newest first.  Used by
// administrative and audit listings.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
    return r.list(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY created_at DESC`)
}

// ListByUser returns the user's bookings, newest first.  When
// activeOnly is set, cancelled bookings are omitted.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64, activeOnly bool) ([]model.Booking, error) {
    q := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ?`
    if activeOnly {
        q += ` AND status <> 'cancelled'`
    }
    q += ` ORDER BY start_time DESC`
    return r.list(ctx, q, userID)
}

// ListByRoom returns the room's non-cancelled bookings, newest first.
func (r *BookingRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.Booking, error) {
    return r.list(ctx,
        `SELECT `+bookingColumns+` FROM bookings WHERE room_id = ? AND status <> 'cancelled' ORDER BY start_time DESC`,
        roomID)
}

// IsSlotFree is the read-only availability probe.  It runs outside any
// transaction and therefore gives no reservation guarantee; only
// RequestBooking decides authoritatively.
func (r *BookingRepo) IsSlotFree(ctx context.Context, roomID uint64, start, end time.Time) (bool, error) {
    var one int
    err := r.db.QueryRowContext(ctx,
        `SELECT 1 FROM bookings
         WHERE room_id = ? AND status IN ('pending','confirmed')
           AND start_time < ? AND end_time > ? LIMIT 1`,
        roomID, end.UTC(), start.UTC()).Scan(&one)
    if err == sql.ErrNoRows {
        return true, nil
    }
    if err != nil {
        return false, err
    }
    return false, nil
}

// HardDelete permanently removes a booking row.  Reserved for the
// MFA-gated administrative endpoint; everything else cancels softly.
func (r *BookingRepo) HardDelete(ctx context.Context, bookingID uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, bookingID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

func (r *BookingRepo) list(ctx context.Context, query string, args ...any) ([]model.Booking, error) {
    rows, err := r.db.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *b)
    }
    return out, rows.Err()
}
