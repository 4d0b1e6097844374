package actors

import (
	"testing"

	"ripple-social/internal/database"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnCommentActor(t *testing.T, store database.Store) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewCommentActor(store, utils.NewMetricsCollector(), nil)
	})
	return system, system.Root.Spawn(props)
}

func TestCreateComment(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	post := seedTestPost(t, store, bob, "a post")
	system, pid := spawnCommentActor(t, store)

	result := ask(t, system, pid, &CreateCommentMsg{
		UserID:  alice.ID,
		PostID:  post.ID,
		Content: "nice post",
	})
	comment, ok := result.(*models.Comment)
	require.True(t, ok, "unexpected response: %T", result)
	assert.Equal(t, "alice", comment.AuthorUsername)
	assert.Equal(t, post.ID, comment.PostID)
	assert.Equal(t, "nice post", comment.Content)

	comments := ask(t, system, pid, &GetPostCommentsMsg{PostID: post.ID}).([]*models.Comment)
	require.Len(t, comments, 1)
}

func TestCreateCommentValidation(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	post := seedTestPost(t, store, alice, "a post")
	system, pid := spawnCommentActor(t, store)

	result := ask(t, system, pid, &CreateCommentMsg{UserID: alice.ID, PostID: post.ID, Content: "   "})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrInvalidInput, appErr.Code)

	result = ask(t, system, pid, &CreateCommentMsg{UserID: alice.ID, PostID: uuid.New(), Content: "hello"})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrPostNotFound, appErr.Code)
}

func TestGetCommentsOnMissingPost(t *testing.T) {
	store := database.NewMockStore()
	system, pid := spawnCommentActor(t, store)

	result := ask(t, system, pid, &GetPostCommentsMsg{PostID: uuid.New()})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrPostNotFound, appErr.Code)
}
