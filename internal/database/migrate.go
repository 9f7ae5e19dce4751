package database

import (
    "context"
    "database/sql"
    "fmt"
    "os"

    "github.com/iliyamo/room-reservation/internal/utils"
)

// migrations are applied in order on startup.  Statements are
// idempotent so a restart against an existing database is a no-op.
var migrations = []string{
    `CREATE TABLE IF NOT EXISTS users (
        id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        name          VARCHAR(255)    NOT NULL,
        username      VARCHAR(64)     NOT NULL,
        email         VARCHAR(255)    NULL,
        password_hash VARCHAR(255)    NOT NULL,
        role          VARCHAR(32)     NOT NULL DEFAULT 'user',
        created_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_users_username (username),
        UNIQUE KEY uq_users_email (email)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS rooms (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        name       VARCHAR(255)    NOT NULL,
        capacity   INT UNSIGNED    NOT NULL,
        equipment  JSON            NOT NULL,
        location   VARCHAR(255)    NOT NULL DEFAULT '',
        status     ENUM('available','out_of_service') NOT NULL DEFAULT 'available',
        created_at TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_rooms_name (name)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS bookings (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        reference  CHAR(36)        NOT NULL,
        user_id    BIGINT UNSIGNED NOT NULL,
        room_id    BIGINT UNSIGNED NOT NULL,
        start_time DATETIME        NOT NULL,
        end_time   DATETIME        NOT NULL,
        status     ENUM('pending','confirmed','cancelled') NOT NULL DEFAULT 'confirmed',
        created_at TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_bookings_reference (reference),
        KEY idx_bookings_room_interval (room_id, start_time, end_time),
        KEY idx_bookings_user (user_id),
        CONSTRAINT fk_bookings_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
        CONSTRAINT fk_bookings_room FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS reviews (
        id          BIGINT UNSIGNED  NOT NULL AUTO_INCREMENT,
        user_id     BIGINT UNSIGNED  NOT NULL,
        room_id     BIGINT UNSIGNED  NOT NULL,
        rating      TINYINT UNSIGNED NOT NULL,
        comment     TEXT             NOT NULL,
        is_flagged  TINYINT(1)       NOT NULL DEFAULT 0,
        flag_reason VARCHAR(255)     NOT NULL DEFAULT '',
        is_removed  TINYINT(1)       NOT NULL DEFAULT 0,
        created_at  TIMESTAMP        NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        KEY idx_reviews_room (room_id),
        KEY idx_reviews_user (user_id),
        CONSTRAINT fk_reviews_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
        CONSTRAINT fk_reviews_room FOREIGN KEY (room_id) REFERENCES rooms (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,

    `CREATE TABLE IF NOT EXISTS refresh_tokens (
        id         BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
        user_id    BIGINT UNSIGNED NOT NULL,
        token_hash CHAR(64)        NOT NULL,
        expires_at DATETIME        NOT NULL,
        revoked_at DATETIME        NULL,
        created_at TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (id),
        UNIQUE KEY uq_refresh_tokens_hash (token_hash),
        KEY idx_refresh_tokens_user (user_id),
        CONSTRAINT fk_refresh_tokens_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
    for i, stmt := range migrations {
        if _, err := db.ExecContext(ctx, stmt); err != nil {
            return fmt.Errorf("migration %d: %w", i+1, err)
        }
    }
    return nil
}

// Seed inserts the bootstrap admin account and a demo room into an
// empty database.  The admin password comes from ADMIN_PASSWORD; when
// unset a development default is used.
func Seed(ctx context.Context, db *sql.DB, bcryptCost int) error {
    var users int
    if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&users); err != nil {
        return err
    }
    if users == 0 {
        pass := os.Getenv("ADMIN_PASSWORD")
        if pass == "" {
            pass = "admin123" // dev default; set ADMIN_PASSWORD in prod
        }
        hash, err := utils.HashPassword(pass, bcryptCost)
        if err != nil {
            return err
        }
        _, err = db.ExecContext(ctx,
            `INSERT INTO users (name, username, email, password_hash, role) VALUES (?, ?, ?, ?, 'admin')`,
            "Administrator", "admin", "admin@example.com", hash)
        if err != nil {
            return err
        }
    }

    var rooms int
    if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&rooms); err != nil {
        return err
    }
    if rooms == 0 {
        _, err := db.ExecContext(ctx,
            `INSERT INTO rooms (name, capacity, equipment, location, status) VALUES (?, ?, ?, ?, 'available')`,
            "Conference Room A", 20, `{"projector": 1, "whiteboard": "wall-mounted"}`, "Main building, floor 2")
        if err != nil {
            return err
        }
    }
    return nil
}
