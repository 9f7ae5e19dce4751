package repository

import (
    "context"
    "database/sql"
    "strings"

    "github.com/iliyamo/room-reservation/internal/model"
    "github.com/iliyamo/room-reservation/internal/utils"
)

// UserRepo provides persistence for the `users` table.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, name, username, email, password_hash, role, created_at`

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
    var (
        u     model.User
        email sql.NullString
    )
    err := row.Scan(&u.ID, &u.Name, &u.Username, &email, &u.PasswordHash, &u.Role, &u.CreatedAt)
    u.Email = email.String
    return u, err
}

// Create hashes the password and inserts the user, returning its ID.
// Username and email collisions map to ErrUsernameExists.
func (r *UserRepo) Create(ctx context.Context, name, username, email, password string, role model.Role, cost int) (uint64, error) {
    username = strings.ToLower(strings.TrimSpace(username))
    email = strings.ToLower(strings.TrimSpace(email))
    hash, err := utils.HashPassword(password, cost)
    if err != nil {
        return 0, err
    }
    var emailVal any
    if email != "" {
        emailVal = email
    }
    res, err := r.DB.ExecContext(ctx,
        `INSERT INTO users (name, username, email, password_hash, role) VALUES (?,?,?,?,?)`,
        name, username, emailVal, hash, role)
    if err != nil {
        if isDuplicate(err) {
            return 0, ErrUsernameExists
        }
        return 0, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return 0, err
    }
    return uint64(id), nil
}

// GetByLogin fetches a user by normalized username or email.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (model.User, error) {
    login = strings.ToLower(strings.TrimSpace(login))
    row := r.DB.QueryRowContext(ctx,
        `SELECT `+userColumns+` FROM users WHERE username = ? OR email = ? LIMIT 1`,
        login, login)
    u, err := scanUser(row)
    if err == sql.ErrNoRows {
        return u, ErrNotFound
    }
    return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    row := r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id)
    u, err := scanUser(row)
    if err == sql.ErrNoRows {
        return u, ErrNotFound
    }
    return u, err
}

// List returns all users ordered by id.  Intended for the admin-only
// listing; callers strip the password hash before responding.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
    rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]model.User, 0)
    for rows.Next() {
        u, err := scanUser(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, u)
    }
    return out, rows.Err()
}

// UserUpdate carries the mutable columns for a partial update.  Nil
// fields are left untouched.  Password is the plain text; it is hashed
// here before storage.
type UserUpdate struct {
    Name     *string
    Email    *string
    Password *string
    Role     *model.Role
}

// Update applies a partial update.  Returns ErrNotFound for a missing
// user and ErrUsernameExists on an email collision.
func (r *UserRepo) Update(ctx context.Context, id uint64, up UserUpdate, bcryptCost int) (model.User, error) {
    sets := make([]string, 0, 4)
    args := make([]any, 0, 5)
    if up.Name != nil {
        sets = append(sets, "name = ?")
        args = append(args, *up.Name)
    }
    if up.Email != nil {
        sets = append(sets, "email = ?")
        args = append(args, strings.ToLower(strings.TrimSpace(*up.Email)))
    }
    if up.Password != nil {
        hash, err := utils.HashPassword(*up.Password, bcryptCost)
        if err != nil {
            return model.User{}, err
        }
        sets = append(sets, "password_hash = ?")
        args = append(args, hash)
    }
    if up.Role != nil {
        sets = append(sets, "role = ?")
        args = append(args, *up.Role)
    }
    if len(sets) == 0 {
        return r.GetByID(ctx, id)
    }
    args = append(args, id)
    if _, err := r.DB.ExecContext(ctx, `UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
        if isDuplicate(err) {
            return model.User{}, ErrUsernameExists
        }
        return model.User{}, err
    }
    return r.GetByID(ctx, id)
}

// Delete removes the user.  Bookings and reviews owned by the user are
// removed by the store through ON DELETE CASCADE; the reservation
// engine tolerates booking references vanishing this way.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
    if err != nil {
        return err
    }
    if n, _ := res.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}
