package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/room-reservation/internal/model"
)

// RoomRepo provides CRUD operations for rooms.  The availability flag on
// a room is administrator-controlled metadata: it is read under lock by
// the reservation path but never derived from the booking set.  All
// timestamp fields are assumed to be stored in UTC.
type RoomRepo struct {
    db *sql.DB
}

// NewRoomRepo returns a new RoomRepo bound to the given database.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions
// that span repositories.
func (r *RoomRepo) DB() *sql.DB { return r.db }

const roomColumns = `id, name, capacity, equipment, location, status, created_at`

func scanRoom(row interface{ Scan(...any) error }) (*model.Room, error) {
    var (
        rm    model.Room
        eqRaw sql.NullString
        loc   sql.NullString
    )
    if err := row.Scan(&rm.ID, &rm.Name, &rm.Capacity, &eqRaw, &loc, &rm.Status, &rm.CreatedAt); err != nil {
        return nil, err
    }
    eq, err := model.DecodeEquipment(eqRaw.String)
    if err != nil {
        return nil, err
    }
    rm.Equipment = eq
    rm.Location = loc.String
    return &rm, nil
}

// Create inserts a new room and populates the generated ID and
// creation timestamp on the returned model.
func (r *RoomRepo) Create(ctx context.Context, rm *model.Room) (*model.Room, error) {
    eqJSON, err := model.EncodeEquipment(rm.Equipment)
    if err != nil {
        return nil, err
    }
    res, err := r.db.ExecContext(ctx,
        `INSERT INTO rooms (name, capacity, equipment, location, status) VALUES (?,?,?,?,?)`,
        rm.Name, rm.Capacity, eqJSON, rm.Location, rm.Status)
    if err != nil {
        if isDuplicate(err) {
            return nil, ErrRoomNameExists
        }
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    return r.GetByID(ctx, uint64(id))
}

// GetByID returns a single room or ErrNotFound.
func (r *RoomRepo) GetByID(ctx context.Context, roomID uint64) (*model.Room, error) {
    row := r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, roomID)
    rm, err := scanRoom(row)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    return rm, err
}

// List returns all rooms ordered by name.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
    rows, err := r.db.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Room, 0)
    for rows.Next() {
        rm, err := scanRoom(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *rm)
    }
    return out, rows.Err()
}

// RoomFilter narrows the available-room search.  Zero values mean the
// criterion is not applied.  Equipment requires each named item to be
// present; numeric demands are compared against numeric counts, while
// text-valued entries match on mere presence.
type RoomFilter struct {
    MinCapacity uint32
    Location    string
    Equipment   model.Equipment
}

// ListAvailable returns rooms whose status is 'available' and which
// satisfy the filter.  Capacity and location narrow the SQL query;
// equipment is matched in Go because the column holds mixed-type JSON.
func (r *RoomRepo) ListAvailable(ctx context.Context, f RoomFilter) ([]model.Room, error) {
    q := `SELECT ` + roomColumns + ` FROM rooms WHERE status = ?`
    args := []any{model.RoomAvailable}
    if f.MinCapacity > 0 {
        q += ` AND capacity >= ?`
        args = append(args, f.MinCapacity)
    }
    if f.Location != "" {
        q += ` AND location LIKE ?`
        args = append(args, "%"+f.Location+"%")
    }
    q += ` ORDER BY name`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Room, 0)
    for rows.Next() {
        rm, err := scanRoom(rows)
        if err != nil {
            return nil, err
        }
        if equipmentSatisfies(rm.Equipment, f.Equipment) {
            out = append(out, *rm)
        }
    }
    return out, rows.Err()
}

// equipmentSatisfies checks that every required equipment entry exists in
// the room. Required numeric counts must be met or exceeded by a numeric
// room entry; text-valued room entries satisfy any requirement by presence.
func equipmentSatisfies(have, want model.Equipment) bool {
    for name, req := range want {
        got, ok := lookupEquipment(have, name)
        if !ok {
            return false
        }
        if req.Count != nil && got.Count != nil && *got.Count < *req.Count {
            return false
        }
    }
    return true
}

func lookupEquipment(eq model.Equipment, name string) (model.EquipmentValue, bool) {
    if v, ok := eq[name]; ok {
        return v, true
    }
    // Equipment names are user supplied; match case-insensitively.
    for k, v := range eq {
        if strings.EqualFold(k, name) {
            return v, true
        }
    }
    return model.EquipmentValue{}, false
}

// RoomUpdate carries the mutable columns for a partial update.  Nil
// fields are left untouched.
type RoomUpdate struct {
    Name      *string
    Capacity  *uint32
    Equipment *model.Equipment
    Location  *string
}

// Update applies a partial update and returns the fresh row.  It
// returns ErrNotFound when the room does not exist and ErrRoomNameExists
// on a name collision.
func (r *RoomRepo) Update(ctx context.Context, roomID uint64, up RoomUpdate) (*model.Room, error) {
    sets := make([]string, 0, 4)
    args := make([]any, 0, 5)
    if up.Name != nil {
        sets = append(sets, "name = ?")
        args = append(args, *up.Name)
    }
    if up.Capacity != nil {
        sets = append(sets, "capacity = ?")
        args = append(args, *up.Capacity)
    }
    if up.Equipment != nil {
        eqJSON, err := model.EncodeEquipment(*up.Equipment)
        if err != nil {
            return nil, err
        }
        sets = append(sets, "equipment = ?")
        args = append(args, eqJSON)
    }
    if up.Location != nil {
        sets = append(sets, "location = ?")
        args = append(args, *up.Location)
    }
    if len(sets) == 0 {
        return r.GetByID(ctx, roomID)
    }
    args = append(args, roomID)
    res, err := r.db.ExecContext(ctx, `UPDATE rooms SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
    if err != nil {
        if isDuplicate(err) {
            return nil, ErrRoomNameExists
        }
        return nil, err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        // Zero rows may mean "no change"; confirm existence explicitly.
        return r.GetByID(ctx, roomID)
    }
    return r.GetByID(ctx, roomID)
}

// SetStatus flips the availability flag.  It is a pure metadata update
// and never touches existing bookings.
func (r *RoomRepo) SetStatus(ctx context.Context, roomID uint64, status model.RoomStatus) error {
    res, err := r.db.ExecContext(ctx, `UPDATE rooms SET status = ? WHERE id = ?`, status, roomID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        var exists uint64
        if err := r.db.QueryRowContext(ctx, `SELECT id FROM rooms WHERE id = ?`, roomID).Scan(&exists); err == sql.ErrNoRows {
            return ErrNotFound
        } else if err != nil {
            return err
        }
    }
    return nil
}

// Delete removes the room.  Dependent bookings and reviews are removed
// by the store through ON DELETE CASCADE.
func (r *RoomRepo) Delete(ctx context.Context, roomID uint64) error {
    res, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, roomID)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}
