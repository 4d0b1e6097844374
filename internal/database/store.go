// internal/database/store.go
package database

import (
	"context"

	"ripple-social/internal/models"

	"github.com/google/uuid"
)

// Store defines the common interface for the persistence backends. It
// allows using either PostgreSQL or MongoDB, and the in-memory MockStore
// in tests.
//
// All mutations that could race (reaction toggles, follow creation and
// removal) are atomic inside the implementation: a single transaction on
// Postgres, unique indexes plus single-document operations on MongoDB.
// Callers never do check-then-write against these methods.
type Store interface {
	// Connection
	Close(ctx context.Context) error

	// User methods
	SaveUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email string) error
	UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// DeleteUser cascades: the user's posts (with their comments and
	// reactions), the user's own comments and reactions, and follow
	// edges in both directions.
	DeleteUser(ctx context.Context, id uuid.UUID) error

	// Post methods
	SavePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, postID, viewerID uuid.UUID) (*models.Post, error)
	UpdatePostContent(ctx context.Context, postID uuid.UUID, content string) error
	// DeletePost cascades the post's comments and reactions.
	DeletePost(ctx context.Context, postID uuid.UUID) error
	GetRecentPosts(ctx context.Context, limit, offset int, viewerID uuid.UUID) ([]*models.Post, error)
	GetFollowingFeed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Post, error)
	GetUserPosts(ctx context.Context, username string, viewerID uuid.UUID) ([]*models.Post, error)
	SearchPosts(ctx context.Context, query string, limit, offset int, viewerID uuid.UUID) ([]*models.Post, error)

	// Comment methods
	SaveComment(ctx context.Context, comment *models.Comment) error
	GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error)

	// Reaction methods. ToggleReaction flips the (user, post, kind)
	// state and reports whether the reaction is now present.
	ToggleReaction(ctx context.Context, userID, postID uuid.UUID, kind models.ReactionKind) (added bool, err error)
	GetLikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) ([]uuid.UUID, error)

	// Follow methods
	CreateFollow(ctx context.Context, currentUserID, secondUserID uuid.UUID) (*models.Follow, error)
	DeleteFollow(ctx context.Context, followID uuid.UUID) error
	GetFollow(ctx context.Context, followID uuid.UUID) (*models.Follow, error)
	GetFollowByPair(ctx context.Context, currentUserID, secondUserID uuid.UUID) (*models.Follow, error)
	ListFollows(ctx context.Context, currentUsername, secondUsername string) ([]*models.Follow, error)
	GetFollowing(ctx context.Context, userID uuid.UUID) ([]*models.User, error)
	GetFollowers(ctx context.Context, userID uuid.UUID) ([]*models.User, error)
	FollowStats(ctx context.Context, userID uuid.UUID) (following int, followers int, err error)
}
