package models

import (
	"time"

	"github.com/google/uuid"
)

// ReactionKind distinguishes likes from dislikes. The two kinds are
// independent: a user may hold both against the same post.
type ReactionKind string

const (
	ReactionLike    ReactionKind = "like"
	ReactionDislike ReactionKind = "dislike"
)

// Reaction existence means "user likes/dislikes post". At most one row
// per (user, post, kind), enforced by a storage uniqueness constraint.
type Reaction struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	UserID    uuid.UUID    `json:"userId" db:"user_id"`
	PostID    uuid.UUID    `json:"postId" db:"post_id"`
	Kind      ReactionKind `json:"kind" db:"kind"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
}
