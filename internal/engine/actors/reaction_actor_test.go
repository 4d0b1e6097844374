package actors

import (
	"context"
	"testing"

	"ripple-social/internal/database"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnReactionActor(t *testing.T, store database.Store) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewReactionActor(store, utils.NewMetricsCollector(), nil)
	})
	return system, system.Root.Spawn(props)
}

func seedTestPost(t *testing.T, store *database.MockStore, author *models.User, content string) *models.Post {
	t.Helper()
	post := &models.Post{
		ID:       uuid.New(),
		AuthorID: author.ID,
		Content:  content,
	}
	require.NoError(t, store.SavePost(context.Background(), post))
	return post
}

func TestToggleLikeRoundTrip(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	post := seedTestPost(t, store, bob, "hello")
	system, pid := spawnReactionActor(t, store)

	first := ask(t, system, pid, &ToggleReactionMsg{UserID: alice.ID, PostID: post.ID, Kind: models.ReactionLike})
	result, ok := first.(*ToggleReactionResult)
	require.True(t, ok, "unexpected response: %T", first)
	assert.True(t, result.Active)
	assert.Equal(t, 1, result.Post.LikesCount)
	assert.True(t, result.Post.IsLiked)

	second := ask(t, system, pid, &ToggleReactionMsg{UserID: alice.ID, PostID: post.ID, Kind: models.ReactionLike}).(*ToggleReactionResult)
	assert.False(t, second.Active)
	assert.Equal(t, 0, second.Post.LikesCount)
	assert.False(t, second.Post.IsLiked)
}

func TestToggleDislikeLeavesLikesAlone(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	post := seedTestPost(t, store, bob, "hello")
	system, pid := spawnReactionActor(t, store)

	ask(t, system, pid, &ToggleReactionMsg{UserID: alice.ID, PostID: post.ID, Kind: models.ReactionLike})
	result := ask(t, system, pid, &ToggleReactionMsg{UserID: alice.ID, PostID: post.ID, Kind: models.ReactionDislike}).(*ToggleReactionResult)

	assert.True(t, result.Active)
	assert.Equal(t, 1, result.Post.LikesCount)
	assert.Equal(t, 1, result.Post.DislikesCount)
	assert.True(t, result.Post.IsLiked)
	assert.True(t, result.Post.IsDisliked)
}

func TestToggleOnMissingPost(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	system, pid := spawnReactionActor(t, store)

	result := ask(t, system, pid, &ToggleReactionMsg{UserID: alice.ID, PostID: uuid.New(), Kind: models.ReactionLike})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrPostNotFound, appErr.Code)
}

func TestGetLikedPostIDsThroughActor(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	liked := seedTestPost(t, store, bob, "liked")
	other := seedTestPost(t, store, bob, "other")
	system, pid := spawnReactionActor(t, store)

	ask(t, system, pid, &ToggleReactionMsg{UserID: alice.ID, PostID: liked.ID, Kind: models.ReactionLike})

	ids := ask(t, system, pid, &GetLikedPostIDsMsg{
		UserID:  alice.ID,
		PostIDs: []uuid.UUID{liked.ID, other.ID},
	}).([]uuid.UUID)
	require.Len(t, ids, 1)
	assert.Equal(t, liked.ID, ids[0])
}
