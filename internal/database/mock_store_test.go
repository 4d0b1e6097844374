package database

import (
	"context"
	"testing"
	"time"

	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, store *MockStore, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          username + "@example.com",
		HashedPassword: "hashed",
		JoinedAt:       time.Now(),
	}
	require.NoError(t, store.SaveUser(context.Background(), user))
	return user
}

func seedPost(t *testing.T, store *MockStore, author *models.User, content string) *models.Post {
	t.Helper()
	post := &models.Post{
		ID:        uuid.New(),
		AuthorID:  author.ID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.SavePost(context.Background(), post))
	return post
}

func TestToggleReactionFlipsState(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	post := seedPost(t, store, bob, "hello world")

	added, err := store.ToggleReaction(ctx, alice.ID, post.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.True(t, added)

	got, err := store.GetPost(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.True(t, got.IsLiked)

	// Second toggle removes the like.
	added, err = store.ToggleReaction(ctx, alice.ID, post.ID, models.ReactionLike)
	require.NoError(t, err)
	assert.False(t, added)

	got, err = store.GetPost(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikesCount)
	assert.False(t, got.IsLiked)
}

func TestLikeAndDislikeAreIndependent(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	post := seedPost(t, store, bob, "content")

	_, err := store.ToggleReaction(ctx, alice.ID, post.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = store.ToggleReaction(ctx, alice.ID, post.ID, models.ReactionDislike)
	require.NoError(t, err)

	got, err := store.GetPost(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.Equal(t, 1, got.DislikesCount)
	assert.True(t, got.IsLiked)
	assert.True(t, got.IsDisliked)
}

func TestToggleReactionUnknownPost(t *testing.T) {
	store := NewMockStore()
	alice := seedUser(t, store, "alice")

	_, err := store.ToggleReaction(context.Background(), alice.ID, uuid.New(), models.ReactionLike)
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
}

func TestViewerFlagsAnonymous(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	post := seedPost(t, store, alice, "content")

	_, err := store.ToggleReaction(ctx, alice.ID, post.ID, models.ReactionLike)
	require.NoError(t, err)

	got, err := store.GetPost(ctx, post.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 1, got.LikesCount)
	assert.False(t, got.IsLiked)
	assert.False(t, got.IsDisliked)
}

func TestCreateFollowSetsMutualFlagOnBothEdges(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	first, err := store.CreateFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, first.EachOther)

	second, err := store.CreateFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, second.EachOther)

	// The first edge was upgraded too.
	firstAgain, err := store.GetFollow(ctx, first.ID)
	require.NoError(t, err)
	assert.True(t, firstAgain.EachOther)
}

func TestDeleteFollowResetsReverseFlag(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	aliceEdge, err := store.CreateFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	bobEdge, err := store.CreateFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, bobEdge.EachOther)

	require.NoError(t, store.DeleteFollow(ctx, aliceEdge.ID))

	remaining, err := store.GetFollow(ctx, bobEdge.ID)
	require.NoError(t, err)
	assert.False(t, remaining.EachOther, "surviving edge must drop the mutual flag")
}

func TestCreateFollowRejectsSelfAndDuplicates(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	_, err := store.CreateFollow(ctx, alice.ID, alice.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrSelfFollow))

	_, err = store.CreateFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = store.CreateFollow(ctx, alice.ID, bob.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrAlreadyFollows))
}

func TestFollowStats(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	carol := seedUser(t, store, "carol")

	_, err := store.CreateFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = store.CreateFollow(ctx, carol.ID, alice.ID)
	require.NoError(t, err)

	following, followers, err := store.FollowStats(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, following)
	assert.Equal(t, 1, followers)
}

func TestFollowingFeedScope(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	carol := seedUser(t, store, "carol")

	seedPost(t, store, bob, "from bob")
	seedPost(t, store, carol, "from carol")
	seedPost(t, store, alice, "from alice")

	_, err := store.CreateFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	feed, err := store.GetFollowingFeed(ctx, alice.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "from bob", feed[0].Content)
	assert.Equal(t, "bob", feed[0].AuthorUsername)

	// Following nobody yields an empty slice, not an error.
	feed, err = store.GetFollowingFeed(ctx, carol.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, feed)
}

func TestRecentPostsPagination(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")

	for i := 0; i < 15; i++ {
		post := &models.Post{
			ID:        uuid.New(),
			AuthorID:  alice.ID,
			Content:   "post",
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.SavePost(ctx, post))
	}

	page1, err := store.GetRecentPosts(ctx, 10, 0, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, page1, 10)

	page2, err := store.GetRecentPosts(ctx, 10, 10, uuid.Nil)
	require.NoError(t, err)
	assert.Len(t, page2, 5)

	// Newest first.
	assert.True(t, page1[0].CreatedAt.After(page1[9].CreatedAt))
}

func TestDeletePostCascades(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")
	post := seedPost(t, store, alice, "to be deleted")

	_, err := store.ToggleReaction(ctx, bob.ID, post.ID, models.ReactionLike)
	require.NoError(t, err)
	require.NoError(t, store.SaveComment(ctx, &models.Comment{
		ID:      uuid.New(),
		UserID:  bob.ID,
		PostID:  post.ID,
		Content: "nice",
	}))

	require.NoError(t, store.DeletePost(ctx, post.ID))

	_, err = store.GetPost(ctx, post.ID, uuid.Nil)
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
	assert.Empty(t, store.reactions)
	assert.Empty(t, store.comments)
}

func TestDeleteUserCascades(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	alicePost := seedPost(t, store, alice, "alice post")
	bobPost := seedPost(t, store, bob, "bob post")

	// Alice interacts with Bob's post and vice versa.
	_, err := store.ToggleReaction(ctx, alice.ID, bobPost.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = store.ToggleReaction(ctx, bob.ID, alicePost.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = store.CreateFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	_, err = store.CreateFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, alice.ID))

	_, err = store.GetUser(ctx, alice.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserNotFound))

	// Alice's post, her reactions, and every follow edge touching her
	// are gone; Bob's post survives with zero likes.
	_, err = store.GetPost(ctx, alicePost.ID, uuid.Nil)
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))

	got, err := store.GetPost(ctx, bobPost.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, 0, got.LikesCount)

	following, followers, err := store.FollowStats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, following)
	assert.Zero(t, followers)
}

func TestGetLikedPostIDs(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	liked := seedPost(t, store, bob, "liked")
	skipped := seedPost(t, store, bob, "skipped")
	disliked := seedPost(t, store, bob, "disliked")

	_, err := store.ToggleReaction(ctx, alice.ID, liked.ID, models.ReactionLike)
	require.NoError(t, err)
	_, err = store.ToggleReaction(ctx, alice.ID, disliked.ID, models.ReactionDislike)
	require.NoError(t, err)

	ids, err := store.GetLikedPostIDs(ctx, alice.ID, []uuid.UUID{liked.ID, skipped.ID, disliked.ID})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, liked.ID, ids[0])
}

func TestSaveUserRejectsDuplicates(t *testing.T) {
	store := NewMockStore()
	seedUser(t, store, "alice")

	err := store.SaveUser(context.Background(), &models.User{
		ID:       uuid.New(),
		Username: "alice",
		Email:    "other@example.com",
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))
}

func TestGetUserByUsernameAnnotatesCounts(t *testing.T) {
	store := NewMockStore()
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	seedPost(t, store, alice, "one")
	seedPost(t, store, alice, "two")
	_, err := store.CreateFollow(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	got, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 2, got.PostsCount)
	assert.Equal(t, 1, got.FollowersCount)
	assert.Equal(t, 0, got.FollowingCount)
}
