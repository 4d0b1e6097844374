package actors

import (
	"log"
	"time"

	stdctx "context"

	"ripple-social/internal/database"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"
	"ripple-social/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for Follow operations
type (
	CreateFollowMsg struct {
		CurrentUserID uuid.UUID
		SecondUserID  uuid.UUID
	}

	UnfollowMsg struct {
		FollowID uuid.UUID
		UserID   uuid.UUID
	}

	ListFollowsMsg struct {
		CurrentUsername string
		SecondUsername  string
	}

	GetFollowersMsg struct {
		Username string
	}

	GetFollowingMsg struct {
		Username string
	}

	FollowStatsMsg struct {
		Username string
	}
)

// FollowActor handles the follow graph and the mutual flag bookkeeping
type FollowActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
	hub     *websocket.Hub
}

func NewFollowActor(store database.Store, metrics *utils.MetricsCollector, hub *websocket.Hub) actor.Actor {
	return &FollowActor{
		store:   store,
		metrics: metrics,
		hub:     hub,
	}
}

func (a *FollowActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("FollowActor started")
	case *actor.Stopping:
		log.Printf("FollowActor stopping")

	case *CreateFollowMsg:
		a.handleCreateFollow(context, msg)
	case *UnfollowMsg:
		a.handleUnfollow(context, msg)
	case *ListFollowsMsg:
		a.handleListFollows(context, msg)
	case *GetFollowersMsg:
		a.handleGetFollowers(context, msg)
	case *GetFollowingMsg:
		a.handleGetFollowing(context, msg)
	case *FollowStatsMsg:
		a.handleFollowStats(context, msg)
	}
}

func (a *FollowActor) handleCreateFollow(context actor.Context, msg *CreateFollowMsg) {
	startTime := time.Now()

	ctx := stdctx.Background()
	follow, err := a.store.CreateFollow(ctx, msg.CurrentUserID, msg.SecondUserID)
	if err != nil {
		context.Respond(err)
		return
	}

	if a.hub != nil {
		a.hub.NotifyUser(follow.SecondUserID, &models.Notification{
			Type:      "follow",
			ActorID:   follow.CurrentUserID,
			Actor:     follow.CurrentUsername,
			CreatedAt: follow.CreatedAt,
		})
	}

	a.metrics.AddOperationLatency("create_follow", time.Since(startTime))
	context.Respond(follow)
}

func (a *FollowActor) handleUnfollow(context actor.Context, msg *UnfollowMsg) {
	startTime := time.Now()

	ctx := stdctx.Background()
	follow, err := a.store.GetFollow(ctx, msg.FollowID)
	if err != nil {
		context.Respond(err)
		return
	}
	if follow.CurrentUserID != msg.UserID {
		context.Respond(utils.NewForbiddenError("only the follower can remove this relationship"))
		return
	}

	if err := a.store.DeleteFollow(ctx, msg.FollowID); err != nil {
		context.Respond(err)
		return
	}
	a.metrics.AddOperationLatency("unfollow", time.Since(startTime))
	context.Respond(true)
}

func (a *FollowActor) handleListFollows(context actor.Context, msg *ListFollowsMsg) {
	ctx := stdctx.Background()
	follows, err := a.store.ListFollows(ctx, msg.CurrentUsername, msg.SecondUsername)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(follows)
}

func (a *FollowActor) handleGetFollowers(context actor.Context, msg *GetFollowersMsg) {
	ctx := stdctx.Background()
	user, err := a.store.GetUserByUsername(ctx, msg.Username)
	if err != nil {
		context.Respond(err)
		return
	}
	followers, err := a.store.GetFollowers(ctx, user.ID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(followers)
}

func (a *FollowActor) handleGetFollowing(context actor.Context, msg *GetFollowingMsg) {
	ctx := stdctx.Background()
	user, err := a.store.GetUserByUsername(ctx, msg.Username)
	if err != nil {
		context.Respond(err)
		return
	}
	following, err := a.store.GetFollowing(ctx, user.ID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(following)
}

func (a *FollowActor) handleFollowStats(context actor.Context, msg *FollowStatsMsg) {
	ctx := stdctx.Background()
	user, err := a.store.GetUserByUsername(ctx, msg.Username)
	if err != nil {
		context.Respond(err)
		return
	}
	following, followers, err := a.store.FollowStats(ctx, user.ID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(&models.FollowStats{
		User:           models.UserRef{ID: user.ID, Username: user.Username},
		FollowingCount: following,
		FollowersCount: followers,
	})
}
