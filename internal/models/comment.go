package models

import (
	"time"

	"github.com/google/uuid"
)

// Comment is immutable after creation; there is no edit path.
type Comment struct {
	ID             uuid.UUID `json:"id" db:"id"`
	UserID         uuid.UUID `json:"userId" db:"user_id"`
	AuthorUsername string    `json:"authorUsername" db:"author_username"`
	PostID         uuid.UUID `json:"postId" db:"post_id"`
	Content        string    `json:"content" db:"content"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
