// internal/database/postgres.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// PostgresDB represents a PostgreSQL database connection
type PostgresDB struct {
	DB *sqlx.DB
}

// NewPostgresDB creates a new PostgreSQL database connection
func NewPostgresDB(connectionString string) (*PostgresDB, error) {
	db, err := sqlx.Connect("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %v", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL!")

	return &PostgresDB{
		DB: db,
	}, nil
}

// Close closes the database connection
func (p *PostgresDB) Close(ctx context.Context) error {
	log.Println("Closing PostgreSQL connection...")
	return p.DB.Close()
}

// InitializeTables creates all necessary tables if they don't exist.
// The uniqueness constraints on reactions and follows are load-bearing:
// they are what makes concurrent duplicate toggles and follows collapse
// into no-ops instead of double rows.
func (p *PostgresDB) InitializeTables(ctx context.Context) error {
	// Users table
	_, err := p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(150) UNIQUE NOT NULL,
			email VARCHAR(254) UNIQUE NOT NULL,
			password_hash VARCHAR(100) NOT NULL,
			first_name VARCHAR(150) NOT NULL DEFAULT '',
			last_name VARCHAR(150) NOT NULL DEFAULT '',
			joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create users table: %v", err)
	}

	// Posts table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id UUID PRIMARY KEY,
			author_id UUID NOT NULL REFERENCES users(id),
			content VARCHAR(140) NOT NULL,
			image_path VARCHAR(255),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create posts table: %v", err)
	}

	// Comments table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS comments (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			post_id UUID NOT NULL REFERENCES posts(id),
			content TEXT NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create comments table: %v", err)
	}

	// Reactions table (likes and dislikes)
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS reactions (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id),
			post_id UUID NOT NULL REFERENCES posts(id),
			kind VARCHAR(10) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE(user_id, post_id, kind)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create reactions table: %v", err)
	}

	// Follows table
	_, err = p.DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS follows (
			id UUID PRIMARY KEY,
			current_user_id UUID NOT NULL REFERENCES users(id),
			second_user_id UUID NOT NULL REFERENCES users(id),
			each_other BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE(current_user_id, second_user_id),
			CHECK (current_user_id <> second_user_id)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create follows table: %v", err)
	}

	return nil
}

// --- User Methods ---

// SaveUser inserts a new user into the database.
func (p *PostgresDB) SaveUser(ctx context.Context, user *models.User) error {
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now()
	}

	query := `
		INSERT INTO users (id, username, email, password_hash, first_name, last_name, joined_at)
		VALUES (:id, :username, :email, :password_hash, :first_name, :last_name, :joined_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, user)
	if err != nil {
		// Check for duplicate key violation (username or email)
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return utils.NewAppError(utils.ErrUserAlreadyExists, fmt.Sprintf("user already exists: %v", pqErr.Constraint), err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

const userColumns = `id, username, email, password_hash, first_name, last_name, joined_at`

// GetUser fetches a user by their ID.
func (p *PostgresDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by id", err)
	}
	return &user, nil
}

// GetUserByUsername fetches a user by username, with derived post and
// follow counts for profile views.
func (p *PostgresDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT ` + userColumns + `,
			(SELECT COUNT(*) FROM posts p WHERE p.author_id = users.id) AS posts_count,
			(SELECT COUNT(*) FROM follows f WHERE f.second_user_id = users.id) AS followers_count,
			(SELECT COUNT(*) FROM follows f WHERE f.current_user_id = users.id) AS following_count
		FROM users WHERE username = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewUserNotFoundError(username)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by username", err)
	}
	return &user, nil
}

// GetUserByEmail fetches a user by their email address.
func (p *PostgresDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	var user models.User
	err := p.DB.GetContext(ctx, &user, query, email)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by email", err)
	}
	return &user, nil
}

// GetAllUsers fetches all users from the database.
func (p *PostgresDB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY joined_at DESC`
	users := []*models.User{}
	err := p.DB.SelectContext(ctx, &users, query)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query all users", err)
	}
	return users, nil
}

// UpdateUserProfile updates the mutable profile fields.
func (p *PostgresDB) UpdateUserProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email string) error {
	query := `UPDATE users SET first_name = $1, last_name = $2, email = $3 WHERE id = $4`
	result, err := p.DB.ExecContext(ctx, query, firstName, lastName, email, id)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return utils.NewAppError(utils.ErrDuplicate, "email already in use", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to update user profile", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to get rows affected after update", err)
	}
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for profile update", nil)
	}
	return nil
}

// UpdateUserPassword replaces the stored password hash.
func (p *PostgresDB) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := p.DB.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update password", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for password update", nil)
	}
	return nil
}

// DeleteUser removes a user and everything hanging off them in a single
// transaction: reactions and comments on the user's posts, the user's own
// reactions and comments, the posts themselves, and follow edges in both
// directions. Every mutual pair loses both edges, so no surviving row
// needs an each_other recompute.
func (p *PostgresDB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback() // Rollback is ignored if tx is committed.

	steps := []struct {
		desc  string
		query string
	}{
		{"delete reactions", `DELETE FROM reactions WHERE user_id = $1 OR post_id IN (SELECT id FROM posts WHERE author_id = $1)`},
		{"delete comments", `DELETE FROM comments WHERE user_id = $1 OR post_id IN (SELECT id FROM posts WHERE author_id = $1)`},
		{"delete posts", `DELETE FROM posts WHERE author_id = $1`},
		{"delete follows", `DELETE FROM follows WHERE current_user_id = $1 OR second_user_id = $1`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, id); err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to "+step.desc, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete user", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for delete", nil)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit user delete", err)
	}
	return nil
}

// --- Post Methods ---

// SavePost inserts a new post record.
func (p *PostgresDB) SavePost(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO posts (id, author_id, content, image_path, created_at)
		VALUES (:id, :author_id, :content, :image_path, :created_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, post)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "foreign_key_violation" {
			return utils.NewAppError(utils.ErrUserNotFound, "post author does not exist", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save post", err)
	}
	return nil
}

// GetPost fetches a post by its ID, annotated with fresh counts and the
// requesting user's like/dislike flags. viewerID may be uuid.Nil for
// anonymous reads; the flags then come back false.
func (p *PostgresDB) GetPost(ctx context.Context, postID, viewerID uuid.UUID) (*models.Post, error) {
	query := `
		SELECT p.id, p.author_id, u.username AS author_username, p.content, p.image_path, p.created_at,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'like') AS likes_count,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'dislike') AS dislikes_count,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments_count,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = $2 AND r.kind = 'like') AS is_liked,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = $2 AND r.kind = 'dislike') AS is_disliked
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.id = $1`
	var post models.Post
	err := p.DB.GetContext(ctx, &post, query, postID, viewerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewPostNotFoundError(postID.String())
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post by id", err)
	}
	return &post, nil
}

// UpdatePostContent replaces a post's content. Authorship checks happen
// upstream; the author column itself is never touched.
func (p *PostgresDB) UpdatePostContent(ctx context.Context, postID uuid.UUID, content string) error {
	result, err := p.DB.ExecContext(ctx, `UPDATE posts SET content = $1 WHERE id = $2`, content, postID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewPostNotFoundError(postID.String())
	}
	return nil
}

// DeletePost removes a post and its comments and reactions in one
// transaction.
func (p *PostgresDB) DeletePost(ctx context.Context, postID uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reactions WHERE post_id = $1`, postID); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete post reactions", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = $1`, postID); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete post comments", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete post", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return utils.NewPostNotFoundError(postID.String())
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit post delete", err)
	}
	return nil
}

// GetRecentPosts retrieves the newest posts across all authors, annotated
// with counts and the viewer's reaction flags.
func (p *PostgresDB) GetRecentPosts(ctx context.Context, limit, offset int, viewerID uuid.UUID) ([]*models.Post, error) {
	query := `
		SELECT p.id, p.author_id, u.username AS author_username, p.content, p.image_path, p.created_at,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'like') AS likes_count,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'dislike') AS dislikes_count,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments_count,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = $3 AND r.kind = 'like') AS is_liked,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = $3 AND r.kind = 'dislike') AS is_disliked
		FROM posts p
		JOIN users u ON p.author_id = u.id
		ORDER BY p.created_at DESC
		LIMIT $1 OFFSET $2
	`
	posts := []*models.Post{}
	err := p.DB.SelectContext(ctx, &posts, query, limit, offset, viewerID)
	if err != nil {
		log.Printf("Error querying recent posts: %v", err)
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query recent posts", err)
	}
	return posts, nil
}

// GetFollowingFeed retrieves posts authored by users the given user
// follows, ordered by creation date. An empty following set yields an
// empty slice, not an error.
func (p *PostgresDB) GetFollowingFeed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Post, error) {
	// 1. Get followed author IDs
	var followedIDs []uuid.UUID
	subQuery := `SELECT second_user_id FROM follows WHERE current_user_id = $1`
	err := p.DB.SelectContext(ctx, &followedIDs, subQuery, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query followed users", err)
	}

	if len(followedIDs) == 0 {
		return []*models.Post{}, nil // User follows nobody
	}

	// 2. Get posts from those authors, annotated for the same viewer
	query, args, err := sqlx.In(`
		SELECT p.id, p.author_id, u.username AS author_username, p.content, p.image_path, p.created_at,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'like') AS likes_count,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'dislike') AS dislikes_count,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments_count,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = ? AND r.kind = 'like') AS is_liked,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = ? AND r.kind = 'dislike') AS is_disliked
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.author_id IN (?)
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?
	`, userID, userID, followedIDs, limit, offset)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to build following feed query", err)
	}

	query = p.DB.Rebind(query) // Rebind ? to $1, $2, etc. for PostgreSQL

	posts := []*models.Post{}
	err = p.DB.SelectContext(ctx, &posts, query, args...)
	if err != nil {
		log.Printf("Error querying following feed: %v", err)
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query following feed", err)
	}
	return posts, nil
}

// GetUserPosts retrieves one author's posts, newest first.
func (p *PostgresDB) GetUserPosts(ctx context.Context, username string, viewerID uuid.UUID) ([]*models.Post, error) {
	query := `
		SELECT p.id, p.author_id, u.username AS author_username, p.content, p.image_path, p.created_at,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'like') AS likes_count,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'dislike') AS dislikes_count,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments_count,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = $2 AND r.kind = 'like') AS is_liked,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = $2 AND r.kind = 'dislike') AS is_disliked
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE u.username = $1
		ORDER BY p.created_at DESC
	`
	posts := []*models.Post{}
	err := p.DB.SelectContext(ctx, &posts, query, username, viewerID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user posts", err)
	}
	return posts, nil
}

// SearchPosts finds posts whose content contains the query substring,
// case-insensitively.
func (p *PostgresDB) SearchPosts(ctx context.Context, query string, limit, offset int, viewerID uuid.UUID) ([]*models.Post, error) {
	sqlQuery := `
		SELECT p.id, p.author_id, u.username AS author_username, p.content, p.image_path, p.created_at,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'like') AS likes_count,
			(SELECT COUNT(*) FROM reactions r WHERE r.post_id = p.id AND r.kind = 'dislike') AS dislikes_count,
			(SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id) AS comments_count,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = $4 AND r.kind = 'like') AS is_liked,
			EXISTS(SELECT 1 FROM reactions r WHERE r.post_id = p.id AND r.user_id = $4 AND r.kind = 'dislike') AS is_disliked
		FROM posts p
		JOIN users u ON p.author_id = u.id
		WHERE p.content ILIKE '%' || $1 || '%'
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3
	`
	posts := []*models.Post{}
	err := p.DB.SelectContext(ctx, &posts, sqlQuery, query, limit, offset, viewerID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to search posts", err)
	}
	return posts, nil
}

// --- Comment Methods ---

// SaveComment inserts a new comment record.
func (p *PostgresDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO comments (id, user_id, post_id, content, created_at)
		VALUES (:id, :user_id, :post_id, :content, :created_at)
	`
	_, err := p.DB.NamedExecContext(ctx, query, comment)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "foreign_key_violation" {
			return utils.NewPostNotFoundError(comment.PostID.String())
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save comment", err)
	}
	return nil
}

// GetPostComments fetches all comments on a post, newest first.
func (p *PostgresDB) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	query := `
		SELECT c.id, c.user_id, u.username AS author_username, c.post_id, c.content, c.created_at
		FROM comments c
		JOIN users u ON c.user_id = u.id
		WHERE c.post_id = $1
		ORDER BY c.created_at DESC
	`
	comments := []*models.Comment{}
	err := p.DB.SelectContext(ctx, &comments, query, postID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post comments", err)
	}
	return comments, nil
}

// --- Reaction Methods ---

// ToggleReaction flips the presence of a (user, post, kind) reaction in a
// single transaction: delete-if-present, otherwise insert. The unique
// constraint turns a concurrent duplicate insert into a no-op, so two
// racing "like" requests end with exactly one row and both report the
// reaction present.
func (p *PostgresDB) ToggleReaction(ctx context.Context, userID, postID uuid.UUID, kind models.ReactionKind) (bool, error) {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowxContext(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, postID).Scan(&exists)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to check post existence", err)
	}
	if !exists {
		return false, utils.NewPostNotFoundError(postID.String())
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM reactions WHERE user_id = $1 AND post_id = $2 AND kind = $3`,
		userID, postID, kind)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to delete reaction", err)
	}
	deleted, _ := result.RowsAffected()

	added := false
	if deleted == 0 {
		result, err = tx.ExecContext(ctx, `
			INSERT INTO reactions (id, user_id, post_id, kind, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (user_id, post_id, kind) DO NOTHING
		`, uuid.New(), userID, postID, kind)
		if err != nil {
			return false, utils.NewAppError(utils.ErrDatabase, "failed to insert reaction", err)
		}
		// Zero rows means a concurrent request inserted first; either
		// way the reaction is now present.
		added = true
	}

	if err := tx.Commit(); err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to commit reaction toggle", err)
	}
	return added, nil
}

// GetLikedPostIDs returns the subset of postIDs the user has liked. Used
// to annotate a feed page with one query instead of one per post.
func (p *PostgresDB) GetLikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(postIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	query, args, err := sqlx.In(
		`SELECT post_id FROM reactions WHERE user_id = ? AND kind = 'like' AND post_id IN (?)`,
		userID, postIDs)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to build liked posts query", err)
	}
	query = p.DB.Rebind(query)

	liked := []uuid.UUID{}
	err = p.DB.SelectContext(ctx, &liked, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query liked posts", err)
	}
	return liked, nil
}

// --- Follow Methods ---

const followColumns = `
	f.id, f.current_user_id, f.second_user_id, f.each_other, f.created_at,
	cu.username AS current_username, su.username AS second_username`

const followJoins = `
	FROM follows f
	JOIN users cu ON f.current_user_id = cu.id
	JOIN users su ON f.second_user_id = su.id`

// CreateFollow inserts a directed follow edge and recomputes the
// each_other flag on both directions inside one transaction, so the
// moment the second edge of a pair lands, both rows agree.
func (p *PostgresDB) CreateFollow(ctx context.Context, currentUserID, secondUserID uuid.UUID) (*models.Follow, error) {
	if currentUserID == secondUserID {
		return nil, utils.NewAppError(utils.ErrSelfFollow, "users cannot follow themselves", nil)
	}

	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	// Resolve both usernames up front; doubles as an existence check.
	var currentUsername, secondUsername string
	err = tx.QueryRowxContext(ctx, `SELECT username FROM users WHERE id = $1`, currentUserID).Scan(&currentUsername)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "follower does not exist", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to look up follower", err)
	}
	err = tx.QueryRowxContext(ctx, `SELECT username FROM users WHERE id = $1`, secondUserID).Scan(&secondUsername)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrUserNotFound, "followee does not exist", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to look up followee", err)
	}

	follow := &models.Follow{
		ID:              uuid.New(),
		CurrentUserID:   currentUserID,
		SecondUserID:    secondUserID,
		CreatedAt:       time.Now(),
		CurrentUsername: currentUsername,
		SecondUsername:  secondUsername,
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO follows (id, current_user_id, second_user_id, each_other, created_at)
		VALUES ($1, $2, $3, FALSE, $4)
		ON CONFLICT (current_user_id, second_user_id) DO NOTHING
	`, follow.ID, currentUserID, secondUserID, follow.CreatedAt)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to insert follow", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return nil, utils.NewAppError(utils.ErrAlreadyFollows, "already following this user", nil)
	}

	// If the reverse edge exists, both directions become mutual now.
	var reverseID uuid.UUID
	err = tx.QueryRowxContext(ctx,
		`SELECT id FROM follows WHERE current_user_id = $1 AND second_user_id = $2`,
		secondUserID, currentUserID).Scan(&reverseID)
	switch {
	case err == sql.ErrNoRows:
		// No reverse edge; the new row stays each_other = false.
	case err != nil:
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to check reverse follow", err)
	default:
		_, err = tx.ExecContext(ctx,
			`UPDATE follows SET each_other = TRUE WHERE id IN ($1, $2)`,
			follow.ID, reverseID)
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to update each_other flags", err)
		}
		follow.EachOther = true
	}

	if err := tx.Commit(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to commit follow", err)
	}
	return follow, nil
}

// DeleteFollow removes a follow edge and clears the reverse edge's
// each_other flag in the same transaction, keeping the mutual flag
// symmetric on removal as well as insertion.
func (p *PostgresDB) DeleteFollow(ctx context.Context, followID uuid.UUID) error {
	tx, err := p.DB.BeginTxx(ctx, nil)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	var edge models.Follow
	err = tx.QueryRowxContext(ctx,
		`SELECT id, current_user_id, second_user_id FROM follows WHERE id = $1`,
		followID).Scan(&edge.ID, &edge.CurrentUserID, &edge.SecondUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return utils.NewAppError(utils.ErrFollowNotFound, "follow relationship not found", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to look up follow", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM follows WHERE id = $1`, followID); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete follow", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE follows SET each_other = FALSE WHERE current_user_id = $1 AND second_user_id = $2`,
		edge.SecondUserID, edge.CurrentUserID)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to reset reverse each_other flag", err)
	}

	if err := tx.Commit(); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to commit unfollow", err)
	}
	return nil
}

// GetFollow fetches a follow edge by its ID.
func (p *PostgresDB) GetFollow(ctx context.Context, followID uuid.UUID) (*models.Follow, error) {
	query := `SELECT` + followColumns + followJoins + ` WHERE f.id = $1`
	var follow models.Follow
	err := p.DB.GetContext(ctx, &follow, query, followID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrFollowNotFound, "follow relationship not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query follow", err)
	}
	return &follow, nil
}

// GetFollowByPair fetches the directed edge for an ordered user pair.
func (p *PostgresDB) GetFollowByPair(ctx context.Context, currentUserID, secondUserID uuid.UUID) (*models.Follow, error) {
	query := `SELECT` + followColumns + followJoins + ` WHERE f.current_user_id = $1 AND f.second_user_id = $2`
	var follow models.Follow
	err := p.DB.GetContext(ctx, &follow, query, currentUserID, secondUserID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, utils.NewAppError(utils.ErrFollowNotFound, "follow relationship not found", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query follow by pair", err)
	}
	return &follow, nil
}

// ListFollows fetches follow edges, optionally filtered by either
// endpoint's username.
func (p *PostgresDB) ListFollows(ctx context.Context, currentUsername, secondUsername string) ([]*models.Follow, error) {
	query := `SELECT` + followColumns + followJoins
	args := []interface{}{}
	where := ""
	if currentUsername != "" {
		args = append(args, currentUsername)
		where = fmt.Sprintf(" WHERE cu.username = $%d", len(args))
	}
	if secondUsername != "" {
		args = append(args, secondUsername)
		if where == "" {
			where = fmt.Sprintf(" WHERE su.username = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND su.username = $%d", len(args))
		}
	}
	query += where + ` ORDER BY f.created_at DESC`

	follows := []*models.Follow{}
	err := p.DB.SelectContext(ctx, &follows, query, args...)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query follows", err)
	}
	return follows, nil
}

// GetFollowing returns the users the given user follows.
func (p *PostgresDB) GetFollowing(ctx context.Context, userID uuid.UUID) ([]*models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name, u.joined_at
		FROM follows f
		JOIN users u ON f.second_user_id = u.id
		WHERE f.current_user_id = $1
		ORDER BY u.username
	`
	users := []*models.User{}
	err := p.DB.SelectContext(ctx, &users, query, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query following", err)
	}
	return users, nil
}

// GetFollowers returns the users following the given user.
func (p *PostgresDB) GetFollowers(ctx context.Context, userID uuid.UUID) ([]*models.User, error) {
	query := `
		SELECT u.id, u.username, u.email, u.password_hash, u.first_name, u.last_name, u.joined_at
		FROM follows f
		JOIN users u ON f.current_user_id = u.id
		WHERE f.second_user_id = $1
		ORDER BY u.username
	`
	users := []*models.User{}
	err := p.DB.SelectContext(ctx, &users, query, userID)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query followers", err)
	}
	return users, nil
}

// FollowStats counts the user's following and follower edges.
func (p *PostgresDB) FollowStats(ctx context.Context, userID uuid.UUID) (int, int, error) {
	var following, followers int
	err := p.DB.QueryRowxContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM follows WHERE current_user_id = $1),
			(SELECT COUNT(*) FROM follows WHERE second_user_id = $1)`,
		userID).Scan(&following, &followers)
	if err != nil {
		return 0, 0, utils.NewAppError(utils.ErrDatabase, "failed to query follow stats", err)
	}
	return following, followers, nil
}
