package actors

import (
	"context"
	"strings"
	"testing"

	"ripple-social/internal/database"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnPostActor(t *testing.T, store database.Store) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewPostActor(store, utils.NewMetricsCollector())
	})
	return system, system.Root.Spawn(props)
}

func TestCreatePostValidation(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	system, pid := spawnPostActor(t, store)

	badImage := "diagram.gif"
	cases := []struct {
		name string
		msg  *CreatePostMsg
	}{
		{"empty content", &CreatePostMsg{AuthorID: alice.ID, Content: "   "}},
		{"too long", &CreatePostMsg{AuthorID: alice.ID, Content: strings.Repeat("x", 141)}},
		{"bad image extension", &CreatePostMsg{AuthorID: alice.ID, Content: "ok", ImagePath: &badImage}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := ask(t, system, pid, tc.msg)
			appErr, ok := result.(*utils.AppError)
			require.True(t, ok, "expected AppError, got %T", result)
			assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
		})
	}
}

func TestCreatePostAtLimit(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	system, pid := spawnPostActor(t, store)

	image := "photo.JPG"
	result := ask(t, system, pid, &CreatePostMsg{
		AuthorID:  alice.ID,
		Content:   strings.Repeat("x", models.MaxPostContentLength),
		ImagePath: &image,
	})
	post, ok := result.(*models.Post)
	require.True(t, ok, "unexpected response: %T", result)
	assert.Equal(t, "alice", post.AuthorUsername)
	assert.Zero(t, post.LikesCount)
	assert.Zero(t, post.CommentsCount)
}

func TestUpdatePostOwnerOnly(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	system, pid := spawnPostActor(t, store)

	post := ask(t, system, pid, &CreatePostMsg{AuthorID: alice.ID, Content: "original"}).(*models.Post)

	result := ask(t, system, pid, &UpdatePostMsg{PostID: post.ID, UserID: bob.ID, Content: "hijacked"})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	updated := ask(t, system, pid, &UpdatePostMsg{PostID: post.ID, UserID: alice.ID, Content: "edited"}).(*models.Post)
	assert.Equal(t, "edited", updated.Content)
	assert.Equal(t, alice.ID, updated.AuthorID)
}

func TestDeletePostOwnerOnly(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	system, pid := spawnPostActor(t, store)

	post := ask(t, system, pid, &CreatePostMsg{AuthorID: alice.ID, Content: "mine"}).(*models.Post)

	result := ask(t, system, pid, &DeletePostMsg{PostID: post.ID, UserID: bob.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	ok2 := ask(t, system, pid, &DeletePostMsg{PostID: post.ID, UserID: alice.ID})
	assert.Equal(t, true, ok2)

	result = ask(t, system, pid, &GetPostMsg{PostID: post.ID, ViewerID: uuid.Nil})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrPostNotFound, appErr.Code)
}

func TestGetUserPostsUnknownAuthor(t *testing.T) {
	store := database.NewMockStore()
	system, pid := spawnPostActor(t, store)

	result := ask(t, system, pid, &GetUserPostsMsg{Username: "ghost", ViewerID: uuid.Nil})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrUserNotFound, appErr.Code)
}

func TestFollowingFeedThroughActor(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	carol := newTestUser(t, store, "carol")
	system, pid := spawnPostActor(t, store)

	ask(t, system, pid, &CreatePostMsg{AuthorID: bob.ID, Content: "from bob"})
	ask(t, system, pid, &CreatePostMsg{AuthorID: carol.ID, Content: "from carol"})

	_, err := store.CreateFollow(context.Background(), alice.ID, bob.ID)
	require.NoError(t, err)

	feed := ask(t, system, pid, &GetFollowingFeedMsg{UserID: alice.ID, Limit: 10}).([]*models.Post)
	require.Len(t, feed, 1)
	assert.Equal(t, "from bob", feed[0].Content)
}

func TestSearchPosts(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	system, pid := spawnPostActor(t, store)

	ask(t, system, pid, &CreatePostMsg{AuthorID: alice.ID, Content: "Gophers love concurrency"})
	ask(t, system, pid, &CreatePostMsg{AuthorID: alice.ID, Content: "unrelated"})

	found := ask(t, system, pid, &SearchPostsMsg{Query: "gophers", Limit: 10, ViewerID: uuid.Nil}).([]*models.Post)
	require.Len(t, found, 1)

	result := ask(t, system, pid, &SearchPostsMsg{Query: "  ", Limit: 10, ViewerID: uuid.Nil})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)
}
