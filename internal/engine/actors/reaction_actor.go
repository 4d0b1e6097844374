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

// Message types for Reaction operations
type (
	ToggleReactionMsg struct {
		UserID uuid.UUID
		PostID uuid.UUID
		Kind   models.ReactionKind
	}

	GetLikedPostIDsMsg struct {
		UserID  uuid.UUID
		PostIDs []uuid.UUID
	}
)

// ToggleReactionResult reports the new reaction state together with the
// freshly annotated post.
type ToggleReactionResult struct {
	Active bool         `json:"active"`
	Post   *models.Post `json:"post"`
}

// ReactionActor handles like and dislike toggles
type ReactionActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
	hub     *websocket.Hub
}

func NewReactionActor(store database.Store, metrics *utils.MetricsCollector, hub *websocket.Hub) actor.Actor {
	return &ReactionActor{
		store:   store,
		metrics: metrics,
		hub:     hub,
	}
}

func (a *ReactionActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("ReactionActor started")
	case *actor.Stopping:
		log.Printf("ReactionActor stopping")

	case *ToggleReactionMsg:
		a.handleToggle(context, msg)
	case *GetLikedPostIDsMsg:
		a.handleGetLikedPostIDs(context, msg)
	}
}

func (a *ReactionActor) handleToggle(context actor.Context, msg *ToggleReactionMsg) {
	startTime := time.Now()

	ctx := stdctx.Background()
	added, err := a.store.ToggleReaction(ctx, msg.UserID, msg.PostID, msg.Kind)
	if err != nil {
		context.Respond(err)
		return
	}

	post, err := a.store.GetPost(ctx, msg.PostID, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}

	// Only a fresh like is worth telling the author about.
	if a.hub != nil && added && msg.Kind == models.ReactionLike && post.AuthorID != msg.UserID {
		if liker, err := a.store.GetUser(ctx, msg.UserID); err == nil {
			postID := post.ID
			a.hub.NotifyUser(post.AuthorID, &models.Notification{
				Type:      "like",
				ActorID:   liker.ID,
				Actor:     liker.Username,
				PostID:    &postID,
				CreatedAt: time.Now(),
			})
		}
	}

	a.metrics.AddOperationLatency("toggle_reaction", time.Since(startTime))
	context.Respond(&ToggleReactionResult{
		Active: added,
		Post:   post,
	})
}

func (a *ReactionActor) handleGetLikedPostIDs(context actor.Context, msg *GetLikedPostIDsMsg) {
	ctx := stdctx.Background()
	liked, err := a.store.GetLikedPostIDs(ctx, msg.UserID, msg.PostIDs)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(liked)
}
