// internal/database/mock_store.go
package database

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for tests. It mirrors
// the Postgres semantics, including the each_other bookkeeping and the
// toggle behavior, behind a single mutex.
type MockStore struct {
	mu        sync.RWMutex
	users     map[uuid.UUID]*models.User
	posts     map[uuid.UUID]*models.Post
	comments  map[uuid.UUID]*models.Comment
	reactions map[uuid.UUID]*models.Reaction
	follows   map[uuid.UUID]*models.Follow
}

// NewMockStore creates an empty in-memory store.
func NewMockStore() *MockStore {
	return &MockStore{
		users:     make(map[uuid.UUID]*models.User),
		posts:     make(map[uuid.UUID]*models.Post),
		comments:  make(map[uuid.UUID]*models.Comment),
		reactions: make(map[uuid.UUID]*models.Reaction),
		follows:   make(map[uuid.UUID]*models.Follow),
	}
}

// Close is a no-op for the in-memory store.
func (m *MockStore) Close(ctx context.Context) error {
	return nil
}

// --- User Methods ---

func (m *MockStore) SaveUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "user already exists", nil)
		}
	}
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now()
	}
	copied := *user
	m.users[user.ID] = &copied
	return nil
}

func (m *MockStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
	}
	copied := *user
	return &copied, nil
}

func (m *MockStore) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			copied := *u
			copied.PostsCount = m.countPostsLocked(u.ID)
			copied.FollowingCount, copied.FollowersCount = m.followCountsLocked(u.ID)
			return &copied, nil
		}
	}
	return nil, utils.NewUserNotFoundError(username)
}

func (m *MockStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", nil)
}

func (m *MockStore) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make([]*models.User, 0, len(m.users))
	for _, u := range m.users {
		copied := *u
		users = append(users, &copied)
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].JoinedAt.After(users[j].JoinedAt)
	})
	return users, nil
}

func (m *MockStore) UpdateUserProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for profile update", nil)
	}
	for otherID, u := range m.users {
		if otherID != id && u.Email == email {
			return utils.NewAppError(utils.ErrDuplicate, "email already in use", nil)
		}
	}
	user.FirstName = firstName
	user.LastName = lastName
	user.Email = email
	return nil
}

func (m *MockStore) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for password update", nil)
	}
	user.HashedPassword = passwordHash
	return nil
}

func (m *MockStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for delete", nil)
	}

	ownPosts := make(map[uuid.UUID]bool)
	for postID, p := range m.posts {
		if p.AuthorID == id {
			ownPosts[postID] = true
		}
	}
	for rid, r := range m.reactions {
		if r.UserID == id || ownPosts[r.PostID] {
			delete(m.reactions, rid)
		}
	}
	for cid, c := range m.comments {
		if c.UserID == id || ownPosts[c.PostID] {
			delete(m.comments, cid)
		}
	}
	for postID := range ownPosts {
		delete(m.posts, postID)
	}
	for fid, f := range m.follows {
		if f.CurrentUserID == id || f.SecondUserID == id {
			delete(m.follows, fid)
		}
	}
	delete(m.users, id)
	return nil
}

// --- Post Methods ---

func (m *MockStore) SavePost(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[post.AuthorID]; !ok {
		return utils.NewAppError(utils.ErrUserNotFound, "post author does not exist", nil)
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	copied := *post
	m.posts[post.ID] = &copied
	return nil
}

func (m *MockStore) GetPost(ctx context.Context, postID, viewerID uuid.UUID) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	post, ok := m.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError(postID.String())
	}
	return m.annotatePostLocked(post, viewerID), nil
}

func (m *MockStore) UpdatePostContent(ctx context.Context, postID uuid.UUID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post, ok := m.posts[postID]
	if !ok {
		return utils.NewPostNotFoundError(postID.String())
	}
	post.Content = content
	return nil
}

func (m *MockStore) DeletePost(ctx context.Context, postID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[postID]; !ok {
		return utils.NewPostNotFoundError(postID.String())
	}
	for rid, r := range m.reactions {
		if r.PostID == postID {
			delete(m.reactions, rid)
		}
	}
	for cid, c := range m.comments {
		if c.PostID == postID {
			delete(m.comments, cid)
		}
	}
	delete(m.posts, postID)
	return nil
}

func (m *MockStore) GetRecentPosts(ctx context.Context, limit, offset int, viewerID uuid.UUID) ([]*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.sortedPostsLocked(func(p *models.Post) bool { return true })
	return m.pageLocked(all, limit, offset, viewerID), nil
}

func (m *MockStore) GetFollowingFeed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	followed := make(map[uuid.UUID]bool)
	for _, f := range m.follows {
		if f.CurrentUserID == userID {
			followed[f.SecondUserID] = true
		}
	}
	all := m.sortedPostsLocked(func(p *models.Post) bool { return followed[p.AuthorID] })
	return m.pageLocked(all, limit, offset, userID), nil
}

func (m *MockStore) GetUserPosts(ctx context.Context, username string, viewerID uuid.UUID) ([]*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var authorID uuid.UUID
	found := false
	for _, u := range m.users {
		if u.Username == username {
			authorID = u.ID
			found = true
			break
		}
	}
	if !found {
		return []*models.Post{}, nil
	}

	all := m.sortedPostsLocked(func(p *models.Post) bool { return p.AuthorID == authorID })
	return m.pageLocked(all, len(all), 0, viewerID), nil
}

func (m *MockStore) SearchPosts(ctx context.Context, query string, limit, offset int, viewerID uuid.UUID) ([]*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	needle := strings.ToLower(query)
	all := m.sortedPostsLocked(func(p *models.Post) bool {
		return strings.Contains(strings.ToLower(p.Content), needle)
	})
	return m.pageLocked(all, limit, offset, viewerID), nil
}

// --- Comment Methods ---

func (m *MockStore) SaveComment(ctx context.Context, comment *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[comment.PostID]; !ok {
		return utils.NewPostNotFoundError(comment.PostID.String())
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	copied := *comment
	m.comments[comment.ID] = &copied
	return nil
}

func (m *MockStore) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	comments := []*models.Comment{}
	for _, c := range m.comments {
		if c.PostID == postID {
			copied := *c
			if u, ok := m.users[c.UserID]; ok {
				copied.AuthorUsername = u.Username
			}
			comments = append(comments, &copied)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		return comments[i].CreatedAt.After(comments[j].CreatedAt)
	})
	return comments, nil
}

// --- Reaction Methods ---

func (m *MockStore) ToggleReaction(ctx context.Context, userID, postID uuid.UUID, kind models.ReactionKind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.posts[postID]; !ok {
		return false, utils.NewPostNotFoundError(postID.String())
	}

	for rid, r := range m.reactions {
		if r.UserID == userID && r.PostID == postID && r.Kind == kind {
			delete(m.reactions, rid)
			return false, nil
		}
	}

	id := uuid.New()
	m.reactions[id] = &models.Reaction{
		ID:        id,
		UserID:    userID,
		PostID:    postID,
		Kind:      kind,
		CreatedAt: time.Now(),
	}
	return true, nil
}

func (m *MockStore) GetLikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	wanted := make(map[uuid.UUID]bool, len(postIDs))
	for _, id := range postIDs {
		wanted[id] = true
	}
	liked := []uuid.UUID{}
	for _, r := range m.reactions {
		if r.UserID == userID && r.Kind == models.ReactionLike && wanted[r.PostID] {
			liked = append(liked, r.PostID)
		}
	}
	return liked, nil
}

// --- Follow Methods ---

func (m *MockStore) CreateFollow(ctx context.Context, currentUserID, secondUserID uuid.UUID) (*models.Follow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if currentUserID == secondUserID {
		return nil, utils.NewAppError(utils.ErrSelfFollow, "users cannot follow themselves", nil)
	}
	current, ok := m.users[currentUserID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "follower does not exist", nil)
	}
	second, ok := m.users[secondUserID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "followee does not exist", nil)
	}
	for _, f := range m.follows {
		if f.CurrentUserID == currentUserID && f.SecondUserID == secondUserID {
			return nil, utils.NewAppError(utils.ErrAlreadyFollows, "already following this user", nil)
		}
	}

	follow := &models.Follow{
		ID:              uuid.New(),
		CurrentUserID:   currentUserID,
		SecondUserID:    secondUserID,
		CreatedAt:       time.Now(),
		CurrentUsername: current.Username,
		SecondUsername:  second.Username,
	}
	for _, reverse := range m.follows {
		if reverse.CurrentUserID == secondUserID && reverse.SecondUserID == currentUserID {
			reverse.EachOther = true
			follow.EachOther = true
			break
		}
	}
	m.follows[follow.ID] = follow

	copied := *follow
	return &copied, nil
}

func (m *MockStore) DeleteFollow(ctx context.Context, followID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	follow, ok := m.follows[followID]
	if !ok {
		return utils.NewAppError(utils.ErrFollowNotFound, "follow relationship not found", nil)
	}
	delete(m.follows, followID)
	for _, reverse := range m.follows {
		if reverse.CurrentUserID == follow.SecondUserID && reverse.SecondUserID == follow.CurrentUserID {
			reverse.EachOther = false
			break
		}
	}
	return nil
}

func (m *MockStore) GetFollow(ctx context.Context, followID uuid.UUID) (*models.Follow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	follow, ok := m.follows[followID]
	if !ok {
		return nil, utils.NewAppError(utils.ErrFollowNotFound, "follow relationship not found", nil)
	}
	copied := *follow
	return &copied, nil
}

func (m *MockStore) GetFollowByPair(ctx context.Context, currentUserID, secondUserID uuid.UUID) (*models.Follow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.follows {
		if f.CurrentUserID == currentUserID && f.SecondUserID == secondUserID {
			copied := *f
			return &copied, nil
		}
	}
	return nil, utils.NewAppError(utils.ErrFollowNotFound, "follow relationship not found", nil)
}

func (m *MockStore) ListFollows(ctx context.Context, currentUsername, secondUsername string) ([]*models.Follow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	follows := []*models.Follow{}
	for _, f := range m.follows {
		if currentUsername != "" && f.CurrentUsername != currentUsername {
			continue
		}
		if secondUsername != "" && f.SecondUsername != secondUsername {
			continue
		}
		copied := *f
		follows = append(follows, &copied)
	}
	sort.Slice(follows, func(i, j int) bool {
		return follows[i].CreatedAt.After(follows[j].CreatedAt)
	})
	return follows, nil
}

func (m *MockStore) GetFollowing(ctx context.Context, userID uuid.UUID) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := []*models.User{}
	for _, f := range m.follows {
		if f.CurrentUserID == userID {
			if u, ok := m.users[f.SecondUserID]; ok {
				copied := *u
				users = append(users, &copied)
			}
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *MockStore) GetFollowers(ctx context.Context, userID uuid.UUID) ([]*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := []*models.User{}
	for _, f := range m.follows {
		if f.SecondUserID == userID {
			if u, ok := m.users[f.CurrentUserID]; ok {
				copied := *u
				users = append(users, &copied)
			}
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (m *MockStore) FollowStats(ctx context.Context, userID uuid.UUID) (int, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	following, followers := m.followCountsLocked(userID)
	return following, followers, nil
}

// --- helpers, all require the lock to be held ---

func (m *MockStore) countPostsLocked(userID uuid.UUID) int {
	count := 0
	for _, p := range m.posts {
		if p.AuthorID == userID {
			count++
		}
	}
	return count
}

func (m *MockStore) followCountsLocked(userID uuid.UUID) (following, followers int) {
	for _, f := range m.follows {
		if f.CurrentUserID == userID {
			following++
		}
		if f.SecondUserID == userID {
			followers++
		}
	}
	return following, followers
}

func (m *MockStore) sortedPostsLocked(keep func(*models.Post) bool) []*models.Post {
	posts := []*models.Post{}
	for _, p := range m.posts {
		if keep(p) {
			posts = append(posts, p)
		}
	}
	sort.Slice(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts
}

func (m *MockStore) pageLocked(posts []*models.Post, limit, offset int, viewerID uuid.UUID) []*models.Post {
	if offset >= len(posts) {
		return []*models.Post{}
	}
	end := offset + limit
	if end > len(posts) {
		end = len(posts)
	}
	page := make([]*models.Post, 0, end-offset)
	for _, p := range posts[offset:end] {
		page = append(page, m.annotatePostLocked(p, viewerID))
	}
	return page
}

func (m *MockStore) annotatePostLocked(post *models.Post, viewerID uuid.UUID) *models.Post {
	copied := *post
	copied.LikesCount = 0
	copied.DislikesCount = 0
	copied.CommentsCount = 0
	copied.IsLiked = false
	copied.IsDisliked = false

	if author, ok := m.users[post.AuthorID]; ok {
		copied.AuthorUsername = author.Username
	}
	for _, r := range m.reactions {
		if r.PostID != post.ID {
			continue
		}
		switch r.Kind {
		case models.ReactionLike:
			copied.LikesCount++
			if r.UserID == viewerID {
				copied.IsLiked = true
			}
		case models.ReactionDislike:
			copied.DislikesCount++
			if r.UserID == viewerID {
				copied.IsDisliked = true
			}
		}
	}
	for _, c := range m.comments {
		if c.PostID == post.ID {
			copied.CommentsCount++
		}
	}
	return &copied
}
