package model

import "time"

// Review is a user's rating of a room.  Reviews are foreign to the
// reservation core: they reference rooms but never participate in
// overlap checks.  Moderation is a pair of soft flags; rows are kept
// for audit even when removed.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – author (FK, cascades on user delete).
//  RoomID     – reviewed room (FK, cascades on room delete).
//  Rating     – integer 1..5.
//  Comment    – free-text comment.
//  IsFlagged  – set by a moderator pending review.
//  FlagReason – optional reason recorded when flagging.
//  IsRemoved  – soft-removed from public listings.
//  CreatedAt  – creation timestamp.
type Review struct {
    ID         uint64    `json:"id"`
    UserID     uint64    `json:"user_id"`
    RoomID     uint64    `json:"room_id"`
    Rating     uint8     `json:"rating"`
    Comment    string    `json:"comment"`
    IsFlagged  bool      `json:"is_flagged"`
    FlagReason string    `json:"flag_reason,omitempty"`
    IsRemoved  bool      `json:"is_removed"`
    CreatedAt  time.Time `json:"created_at"`
}

// ValidRating reports whether r is inside the allowed 1..5 range.
func ValidRating(r int) bool { return r >= 1 && r <= 5 }
