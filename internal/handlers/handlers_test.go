package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ripple-social/internal/database"
	"ripple-social/internal/engine"
	"ripple-social/internal/middleware"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"
	"ripple-social/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	store   *database.MockStore
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := database.NewMockStore()
	metrics := utils.NewMetricsCollector()
	hub := websocket.NewHub()
	go hub.Run()

	system := actor.NewActorSystem()
	eng := engine.NewEngine(system, store, metrics, hub)
	server := NewServer(system, eng, metrics, hub)

	return &testEnv{
		store:   store,
		handler: middleware.Identify(server.Routes()),
	}
}

// seedUser inserts a user directly, skipping the bcrypt-heavy register
// path, and returns the user with a valid token.
func (e *testEnv) seedUser(t *testing.T, username string) (*models.User, string) {
	t.Helper()
	user := &models.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "not-a-real-hash",
	}
	require.NoError(t, e.store.SaveUser(context.Background(), user))

	token, err := middleware.GenerateToken(user.ID)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestRegisterAndLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/users/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.User](t, rec)
	assert.Equal(t, "alice", created.Username)

	rec = env.do(t, http.MethodPost, "/users/login", "", map[string]string{
		"username": "alice",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	login := decode[LoginResponse](t, rec)
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "alice", login.Username)

	rec = env.do(t, http.MethodPost, "/users/login", "", map[string]string{
		"username": "alice",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// The issued token works against an authenticated endpoint.
	rec = env.do(t, http.MethodGet, "/users/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[models.User](t, rec)
	assert.Equal(t, created.ID, me.ID)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser(t, "alice")

	// Anonymous write is forbidden, not unauthorized.
	rec := env.do(t, http.MethodPost, "/posts", "", map[string]string{"content": "hello"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/posts", token, map[string]string{"content": "hello world"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	post := decode[models.Post](t, rec)
	assert.Equal(t, "alice", post.AuthorUsername)

	rec = env.do(t, http.MethodPost, "/posts", token, map[string]string{
		"content": strings.Repeat("x", 141),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGarbledTokenIsRejected(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/posts", "garbage-token", map[string]string{"content": "hello"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLikeToggleEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.seedUser(t, "alice")
	_, bobToken := env.seedUser(t, "bob")

	post := &models.Post{ID: uuid.New(), AuthorID: alice.ID, Content: "like me"}
	require.NoError(t, env.store.SavePost(context.Background(), post))
	likeURL := fmt.Sprintf("/posts/%s/like", post.ID)

	// Anonymous like leaves no trace.
	rec := env.do(t, http.MethodPost, likeURL, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	got, err := env.store.GetPost(context.Background(), post.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Zero(t, got.LikesCount)

	rec = env.do(t, http.MethodPost, likeURL, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[ToggleReactionResponse](t, rec)
	assert.Equal(t, "liked", result.Status)
	assert.Equal(t, 1, result.Post.LikesCount)
	assert.True(t, result.Post.IsLiked)

	// Toggling again removes it.
	rec = env.do(t, http.MethodPost, likeURL, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result = decode[ToggleReactionResponse](t, rec)
	assert.Equal(t, "unliked", result.Status)
	assert.Zero(t, result.Post.LikesCount)
}

func TestDeletePostForbiddenForNonAuthor(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice")
	_, bobToken := env.seedUser(t, "bob")

	post := &models.Post{ID: uuid.New(), AuthorID: alice.ID, Content: "mine"}
	require.NoError(t, env.store.SavePost(context.Background(), post))
	postURL := fmt.Sprintf("/posts/%s", post.ID)

	rec := env.do(t, http.MethodDelete, postURL, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodDelete, postURL, aliceToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, postURL, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAddCommentEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.seedUser(t, "alice")
	_, bobToken := env.seedUser(t, "bob")

	post := &models.Post{ID: uuid.New(), AuthorID: alice.ID, Content: "discuss"}
	require.NoError(t, env.store.SavePost(context.Background(), post))

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/posts/%s/add_comment", post.ID), bobToken,
		map[string]string{"content": "first!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	comment := decode[models.Comment](t, rec)
	assert.Equal(t, "bob", comment.AuthorUsername)

	rec = env.do(t, http.MethodPost, fmt.Sprintf("/posts/%s/add_comment", post.ID), bobToken,
		map[string]string{"content": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/posts/%s/comments", post.ID), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	comments := decode[[]models.Comment](t, rec)
	assert.Len(t, comments, 1)
}

func TestFollowLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	_, aliceToken := env.seedUser(t, "alice")
	_, bobToken := env.seedUser(t, "bob")

	// Alice follows Bob by username.
	rec := env.do(t, http.MethodPost, "/social/follows", aliceToken, map[string]string{"username": "bob"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	follow := decode[models.Follow](t, rec)
	assert.False(t, follow.EachOther)

	// Duplicate follow is a 400.
	rec = env.do(t, http.MethodPost, "/social/follows", aliceToken, map[string]string{"username": "bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Self-follow is a 400.
	rec = env.do(t, http.MethodPost, "/social/follows", aliceToken, map[string]string{"username": "alice"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bob follows back; his edge is born mutual.
	rec = env.do(t, http.MethodPost, "/social/follows", bobToken, map[string]string{"username": "alice"})
	require.Equal(t, http.StatusCreated, rec.Code)
	reverse := decode[models.Follow](t, rec)
	assert.True(t, reverse.EachOther)

	// Stats line up for both users.
	rec = env.do(t, http.MethodGet, "/users/bob/follow-stats", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[models.FollowStats](t, rec)
	assert.Equal(t, "bob", stats.User.Username)
	assert.Equal(t, 1, stats.FollowingCount)
	assert.Equal(t, 1, stats.FollowersCount)

	// Bob cannot remove Alice's edge.
	unfollowURL := fmt.Sprintf("/social/follows/%s/unfollow", follow.ID)
	rec = env.do(t, http.MethodPost, unfollowURL, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Alice can; Bob's surviving edge drops the mutual flag.
	rec = env.do(t, http.MethodPost, unfollowURL, aliceToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unfollowed", decode[map[string]string](t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/social/follows?currentUser=bob", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	follows := decode[[]models.Follow](t, rec)
	require.Len(t, follows, 1)
	assert.False(t, follows[0].EachOther)
}

func TestFollowingFeedEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice, aliceToken := env.seedUser(t, "alice")
	bob, _ := env.seedUser(t, "bob")
	carol, _ := env.seedUser(t, "carol")

	require.NoError(t, env.store.SavePost(context.Background(),
		&models.Post{ID: uuid.New(), AuthorID: bob.ID, Content: "from bob"}))
	require.NoError(t, env.store.SavePost(context.Background(),
		&models.Post{ID: uuid.New(), AuthorID: carol.ID, Content: "from carol"}))

	// Anonymous callers have no following feed.
	rec := env.do(t, http.MethodGet, "/social/following-posts", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Before following anyone the feed is empty.
	rec = env.do(t, http.MethodGet, "/social/following-posts", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[[]models.Post](t, rec)
	assert.Empty(t, feed)

	_, err := env.store.CreateFollow(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	rec = env.do(t, http.MethodGet, "/social/following-posts", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed = decode[[]models.Post](t, rec)
	require.Len(t, feed, 1)
	assert.Equal(t, "from bob", feed[0].Content)
}

func TestGlobalFeedAnnotation(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.seedUser(t, "alice")
	_, bobToken := env.seedUser(t, "bob")

	post := &models.Post{ID: uuid.New(), AuthorID: alice.ID, Content: "popular"}
	require.NoError(t, env.store.SavePost(context.Background(), post))

	rec := env.do(t, http.MethodPost, fmt.Sprintf("/posts/%s/like", post.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Bob sees his own like flag; anonymous readers see the count only.
	rec = env.do(t, http.MethodGet, "/posts", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed := decode[[]models.Post](t, rec)
	require.Len(t, feed, 1)
	assert.Equal(t, 1, feed[0].LikesCount)
	assert.True(t, feed[0].IsLiked)

	rec = env.do(t, http.MethodGet, "/posts", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	feed = decode[[]models.Post](t, rec)
	require.Len(t, feed, 1)
	assert.Equal(t, 1, feed[0].LikesCount)
	assert.False(t, feed[0].IsLiked)
}

func TestUserProfileEndpoint(t *testing.T) {
	env := newTestEnv(t)
	alice, _ := env.seedUser(t, "alice")
	bob, _ := env.seedUser(t, "bob")

	require.NoError(t, env.store.SavePost(context.Background(),
		&models.Post{ID: uuid.New(), AuthorID: alice.ID, Content: "one"}))
	_, err := env.store.CreateFollow(context.Background(), bob.ID, alice.ID)
	require.NoError(t, err)

	rec := env.do(t, http.MethodGet, "/users/alice", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[models.User](t, rec)
	assert.Equal(t, 1, profile.PostsCount)
	assert.Equal(t, 1, profile.FollowersCount)

	rec = env.do(t, http.MethodGet, "/users/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "ok", body["status"])
}
