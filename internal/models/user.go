package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	HashedPassword string    `json:"-" db:"password_hash"`
	FirstName      string    `json:"firstName" db:"first_name"`
	LastName       string    `json:"lastName" db:"last_name"`
	JoinedAt       time.Time `json:"joinedAt" db:"joined_at"`

	// Derived counts, populated on profile reads only.
	PostsCount     int `json:"postsCount" db:"posts_count"`
	FollowersCount int `json:"followersCount" db:"followers_count"`
	FollowingCount int `json:"followingCount" db:"following_count"`
}

// UserRef is the minimal user shape embedded in follow records and
// follow-stats responses.
type UserRef struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Username string    `json:"username" db:"username"`
}
