package actors

import (
	"context"
	"testing"
	"time"

	"ripple-social/internal/database"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, store *database.MockStore, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "hashed",
	}
	require.NoError(t, store.SaveUser(context.Background(), user))
	return user
}

func spawnFollowActor(t *testing.T, store database.Store) (*actor.ActorSystem, *actor.PID) {
	t.Helper()
	system := actor.NewActorSystem()
	props := actor.PropsFromProducer(func() actor.Actor {
		return NewFollowActor(store, utils.NewMetricsCollector(), nil)
	})
	return system, system.Root.Spawn(props)
}

func ask(t *testing.T, system *actor.ActorSystem, pid *actor.PID, msg interface{}) interface{} {
	t.Helper()
	future := system.Root.RequestFuture(pid, msg, 5*time.Second)
	result, err := future.Result()
	require.NoError(t, err)
	return result
}

func TestFollowBecomesMutual(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	system, pid := spawnFollowActor(t, store)

	first := ask(t, system, pid, &CreateFollowMsg{CurrentUserID: alice.ID, SecondUserID: bob.ID})
	firstFollow, ok := first.(*models.Follow)
	require.True(t, ok, "unexpected response: %T", first)
	assert.False(t, firstFollow.EachOther)
	assert.Equal(t, "alice", firstFollow.CurrentUsername)
	assert.Equal(t, "bob", firstFollow.SecondUsername)

	second := ask(t, system, pid, &CreateFollowMsg{CurrentUserID: bob.ID, SecondUserID: alice.ID})
	secondFollow := second.(*models.Follow)
	assert.True(t, secondFollow.EachOther)

	// Listing shows both edges flagged mutual.
	listed := ask(t, system, pid, &ListFollowsMsg{CurrentUsername: "alice"}).([]*models.Follow)
	require.Len(t, listed, 1)
	assert.True(t, listed[0].EachOther)
}

func TestSelfFollowRejected(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	system, pid := spawnFollowActor(t, store)

	result := ask(t, system, pid, &CreateFollowMsg{CurrentUserID: alice.ID, SecondUserID: alice.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrSelfFollow, appErr.Code)
}

func TestDuplicateFollowRejected(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	system, pid := spawnFollowActor(t, store)

	ask(t, system, pid, &CreateFollowMsg{CurrentUserID: alice.ID, SecondUserID: bob.ID})
	result := ask(t, system, pid, &CreateFollowMsg{CurrentUserID: alice.ID, SecondUserID: bob.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrAlreadyFollows, appErr.Code)
}

func TestUnfollowOwnerOnly(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	system, pid := spawnFollowActor(t, store)

	follow := ask(t, system, pid, &CreateFollowMsg{CurrentUserID: alice.ID, SecondUserID: bob.ID}).(*models.Follow)

	// Bob cannot remove Alice's edge.
	result := ask(t, system, pid, &UnfollowMsg{FollowID: follow.ID, UserID: bob.ID})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrForbidden, appErr.Code)

	// Alice can.
	ok2 := ask(t, system, pid, &UnfollowMsg{FollowID: follow.ID, UserID: alice.ID})
	assert.Equal(t, true, ok2)

	result = ask(t, system, pid, &UnfollowMsg{FollowID: follow.ID, UserID: alice.ID})
	appErr, ok = result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrFollowNotFound, appErr.Code)
}

func TestUnfollowDropsMutualFlagOnSurvivor(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	system, pid := spawnFollowActor(t, store)

	aliceEdge := ask(t, system, pid, &CreateFollowMsg{CurrentUserID: alice.ID, SecondUserID: bob.ID}).(*models.Follow)
	ask(t, system, pid, &CreateFollowMsg{CurrentUserID: bob.ID, SecondUserID: alice.ID})

	ask(t, system, pid, &UnfollowMsg{FollowID: aliceEdge.ID, UserID: alice.ID})

	listed := ask(t, system, pid, &ListFollowsMsg{CurrentUsername: "bob"}).([]*models.Follow)
	require.Len(t, listed, 1)
	assert.False(t, listed[0].EachOther)
}

func TestFollowStatsForUsername(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	carol := newTestUser(t, store, "carol")
	system, pid := spawnFollowActor(t, store)

	ask(t, system, pid, &CreateFollowMsg{CurrentUserID: alice.ID, SecondUserID: bob.ID})
	ask(t, system, pid, &CreateFollowMsg{CurrentUserID: carol.ID, SecondUserID: bob.ID})
	ask(t, system, pid, &CreateFollowMsg{CurrentUserID: bob.ID, SecondUserID: alice.ID})

	stats := ask(t, system, pid, &FollowStatsMsg{Username: "bob"}).(*models.FollowStats)
	assert.Equal(t, "bob", stats.User.Username)
	assert.Equal(t, 1, stats.FollowingCount)
	assert.Equal(t, 2, stats.FollowersCount)

	// Unknown user is a 404-mapped error, not zero stats.
	result := ask(t, system, pid, &FollowStatsMsg{Username: "nobody"})
	appErr, ok := result.(*utils.AppError)
	require.True(t, ok)
	assert.Equal(t, utils.ErrUserNotFound, appErr.Code)
}

func TestFollowersAndFollowingLists(t *testing.T) {
	store := database.NewMockStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")
	system, pid := spawnFollowActor(t, store)

	ask(t, system, pid, &CreateFollowMsg{CurrentUserID: alice.ID, SecondUserID: bob.ID})

	followers := ask(t, system, pid, &GetFollowersMsg{Username: "bob"}).([]*models.User)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	following := ask(t, system, pid, &GetFollowingMsg{Username: "alice"}).([]*models.User)
	require.Len(t, following, 1)
	assert.Equal(t, "bob", following[0].Username)
}
