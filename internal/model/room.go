package model

import "time"

// RoomStatus is the administrator-controlled availability flag on a room.
// It gates new booking attempts only; it is deliberately independent of
// whether the room currently has bookings scheduled.
type RoomStatus string

const (
    RoomAvailable    RoomStatus = "available"
    RoomOutOfService RoomStatus = "out_of_service"
)

// Room mirrors the `rooms` table.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique display name.
//  Capacity  – positive seat capacity.
//  Equipment – equipment name to count/descriptor mapping.
//  Location  – free-text location (building, floor).
//  Status    – availability flag (available | out_of_service).
//  CreatedAt – creation timestamp.
type Room struct {
    ID        uint64     `json:"id"`
    Name      string     `json:"name"`
    Capacity  uint32     `json:"capacity"`
    Equipment Equipment  `json:"equipment"`
    Location  string     `json:"location"`
    Status    RoomStatus `json:"status"`
    CreatedAt time.Time  `json:"created_at"`
}
