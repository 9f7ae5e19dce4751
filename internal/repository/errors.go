// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and the reservation engine to distinguish between different
// failure scenarios without inspecting driver-specific errors.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a referenced room, user, booking or
// review does not exist. Handlers should translate this into an HTTP
// 404 response.
var ErrNotFound = errors.New("record not found")

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own and their role grants no override. Handlers
// should translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrBusy is returned when the store reports lock contention (lock wait
// timeout or deadlock) rather than an actual conflicting row. It is
// retryable by the caller, unlike a real slot conflict.
var ErrBusy = errors.New("storage busy, retry")

// ErrRoomNameExists is returned on a unique violation of rooms.name.
var ErrRoomNameExists = errors.New("room name already exists")

// ErrUsernameExists is returned on a unique violation of users.username
// or users.email.
var ErrUsernameExists = errors.New("username or email already exists")

// MySQL server error numbers that matter to the reservation path.
const (
    mysqlErrDuplicateEntry  = 1062
    mysqlErrLockDeadlock    = 1213
    mysqlErrLockWaitTimeout = 1205
)

// translateLockErr maps driver-level contention errors onto ErrBusy so
// the engine can surface them distinctly from slot conflicts. Other
// errors pass through unchanged.
func translateLockErr(err error) error {
    if err == nil {
        return nil
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) {
        switch me.Number {
        case mysqlErrLockWaitTimeout, mysqlErrLockDeadlock:
            return ErrBusy
        }
    }
    return err
}

// isDuplicate reports whether err is a unique-key violation.
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry
}
