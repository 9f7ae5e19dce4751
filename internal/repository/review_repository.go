package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/room-reservation/internal/model"
)

// ReviewRepo provides persistence for room reviews.  Moderation state
// (flagged, removed) is stored as soft flags; review rows are never
// deleted by moderation actions.
type ReviewRepo struct{ DB *sql.DB }

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

const reviewColumns = `id, user_id, room_id, rating, comment, is_flagged, flag_reason, is_removed, created_at`

func scanReview(row interface{ Scan(...any) error }) (*model.Review, error) {
    var (
        rv     model.Review
        reason sql.NullString
    )
    if err := row.Scan(&rv.ID, &rv.UserID, &rv.RoomID, &rv.Rating, &rv.Comment, &rv.IsFlagged, &reason, &rv.IsRemoved, &rv.CreatedAt); err != nil {
        return nil, err
    }
    rv.FlagReason = reason.String
    return &rv, nil
}

// Create inserts a review and returns the stored row.
func (r *ReviewRepo) Create(ctx context.Context, rv *model.Review) (*model.Review, error) {
    res, err := r.DB.ExecContext(ctx,
        `INSERT INTO reviews (user_id, room_id, rating, comment) VALUES (?,?,?,?)`,
        rv.UserID, rv.RoomID, rv.Rating, rv.Comment)
    if err != nil {
        return nil, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return nil, err
    }
    return r.GetByID(ctx, uint64(id))
}

// GetByID returns a review or ErrNotFound.
func (r *ReviewRepo) GetByID(ctx context.Context, reviewID uint64) (*model.Review, error) {
    row := r.DB.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, reviewID)
    rv, err := scanReview(row)
    if err == sql.ErrNoRows {
        return nil, ErrNotFound
    }
    return rv, err
}

// ListByRoom returns a room's reviews, newest first.  Unless
// includeHidden is set, flagged and removed reviews are filtered out of
// the listing (moderators pass includeHidden=true).
func (r *ReviewRepo) ListByRoom(ctx context.Context, roomID uint64, includeHidden bool) ([]model.Review, error) {
    q := `SELECT ` + reviewColumns + ` FROM reviews WHERE room_id = ?`
    if !includeHidden {
        q += ` AND is_flagged = FALSE AND is_removed = FALSE`
    }
    q += ` ORDER BY created_at DESC`
    return r.list(ctx, q, roomID)
}

// ListByUser returns the reviews written by a user, newest first.
func (r *ReviewRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Review, error) {
    return r.list(ctx,
        `SELECT `+reviewColumns+` FROM reviews WHERE user_id = ? ORDER BY created_at DESC`, userID)
}

// ReviewUpdate carries the author-editable columns.
type ReviewUpdate struct {
    Rating  *uint8
    Comment *string
}

// Update applies a partial update to rating/comment.
func (r *ReviewRepo) Update(ctx context.Context, reviewID uint64, up ReviewUpdate) (*model.Review, error) {
    sets := make([]string, 0, 2)
    args := make([]any, 0, 3)
    if up.Rating != nil {
        sets = append(sets, "rating = ?")
        args = append(args, *up.Rating)
    }
    if up.Comment != nil {
        sets = append(sets, "comment = ?")
        args = append(args, *up.Comment)
    }
    if len(sets) == 0 {
        return r.GetByID(ctx, reviewID)
    }
    args = append(args, reviewID)
    if _, err := r.DB.ExecContext(ctx, `UPDATE reviews SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
        return nil, err
    }
    return r.GetByID(ctx, reviewID)
}

// SetFlag marks or clears the moderation flag.  Clearing also clears
// the recorded reason.
func (r *ReviewRepo) SetFlag(ctx context.Context, reviewID uint64, flagged bool, reason string) (*model.Review, error) {
    var reasonVal any
    if flagged && reason != "" {
        reasonVal = reason
    }
    res, err := r.DB.ExecContext(ctx,
        `UPDATE reviews SET is_flagged = ?, flag_reason = ? WHERE id = ?`,
        flagged, reasonVal, reviewID)
    if err != nil {
        return nil, err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        if _, err := r.GetByID(ctx, reviewID); err != nil {
            return nil, err
        }
    }
    return r.GetByID(ctx, reviewID)
}

// SetRemoved soft-removes or restores a review.
func (r *ReviewRepo) SetRemoved(ctx context.Context, reviewID uint64, removed bool) (*model.Review, error) {
    res, err := r.DB.ExecContext(ctx, `UPDATE reviews SET is_removed = ? WHERE id = ?`, removed, reviewID)
    if err != nil {
        return nil, err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        if _, err := r.GetByID(ctx, reviewID); err != nil {
            return nil, err
        }
    }
    return r.GetByID(ctx, reviewID)
}

func (r *ReviewRepo) list(ctx context.Context, query string, args ...any) ([]model.Review, error) {
    rows, err := r.DB.QueryContext(ctx, query, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.Review, 0)
    for rows.Next() {
        rv, err := scanReview(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, *rv)
    }
    return out, rows.Err()
}
