package models

import (
	"time"

	"github.com/google/uuid"
)

// MaxPostContentLength bounds post bodies, matching the 140-character
// column limit.
const MaxPostContentLength = 140

type Post struct {
	ID             uuid.UUID `json:"id" db:"id"`
	AuthorID       uuid.UUID `json:"authorId" db:"author_id"`
	AuthorUsername string    `json:"authorUsername" db:"author_username"`
	Content        string    `json:"content" db:"content"`
	ImagePath      *string   `json:"imagePath,omitempty" db:"image_path"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`

	// Aggregates computed fresh per query, never stored.
	LikesCount    int `json:"likesCount" db:"likes_count"`
	DislikesCount int `json:"dislikesCount" db:"dislikes_count"`
	CommentsCount int `json:"commentsCount" db:"comments_count"`

	// Viewer flags; always false for anonymous requests.
	IsLiked    bool `json:"isLikedByUser" db:"is_liked"`
	IsDisliked bool `json:"isDislikedByUser" db:"is_disliked"`
}
