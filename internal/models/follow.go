package models

import (
	"time"

	"github.com/google/uuid"
)

// Follow is a directed edge: CurrentUser follows SecondUser. EachOther is
// true iff the reverse edge also exists; it is recomputed on both rows
// whenever either edge is inserted or removed.
type Follow struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CurrentUserID uuid.UUID `json:"currentUserId" db:"current_user_id"`
	SecondUserID  uuid.UUID `json:"secondUserId" db:"second_user_id"`
	EachOther     bool      `json:"each_other" db:"each_other"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`

	// Usernames joined in for list views.
	CurrentUsername string `json:"currentUsername" db:"current_username"`
	SecondUsername  string `json:"secondUsername" db:"second_username"`
}

// FollowStats is the follow-stats response for a user.
type FollowStats struct {
	User           UserRef `json:"user"`
	FollowingCount int     `json:"following_count"`
	FollowersCount int     `json:"followers_count"`
}

// Notification is the payload pushed over the websocket hub when someone
// follows, likes, or comments.
type Notification struct {
	Type      string    `json:"type"`
	ActorID   uuid.UUID `json:"actorId"`
	Actor     string    `json:"actor"`
	PostID    *uuid.UUID `json:"postId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
