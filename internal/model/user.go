package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Each field corresponds to a column in the database.  Handlers
// define separate response types; the password hash never leaves the
// repository/handler boundary.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – full display name.
//  Username     – unique login name.
//  Email        – unique email address (optional, may be empty).
//  PasswordHash – bcrypt hashed password.
//  Role         – role name from the closed role set.
//  CreatedAt    – timestamp of creation.
type User struct {
    ID           uint64    `json:"id"`
    Name         string    `json:"name"`
    Username     string    `json:"username"`
    Email        string    `json:"email,omitempty"`
    PasswordHash string    `json:"-"`
    Role         Role      `json:"role"`
    CreatedAt    time.Time `json:"created_at"`
}

// RefreshToken models an entry in the `refresh_tokens` table.  The
// plain token is not stored; only its SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserID    – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64
    UserID    uint64
    TokenHash string
    ExpiresAt time.Time
    RevokedAt *time.Time
    CreatedAt time.Time
}
