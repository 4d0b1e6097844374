package actors

import (
	"log"
	"strings"
	"time"

	stdctx "context"

	"ripple-social/internal/database"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"
	"ripple-social/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for Comment operations
type (
	CreateCommentMsg struct {
		UserID  uuid.UUID
		PostID  uuid.UUID
		Content string
	}

	GetPostCommentsMsg struct {
		PostID uuid.UUID
	}
)

// CommentActor handles comment creation and listing
type CommentActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
	hub     *websocket.Hub
}

func NewCommentActor(store database.Store, metrics *utils.MetricsCollector, hub *websocket.Hub) actor.Actor {
	return &CommentActor{
		store:   store,
		metrics: metrics,
		hub:     hub,
	}
}

func (a *CommentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("CommentActor started")
	case *actor.Stopping:
		log.Printf("CommentActor stopping")

	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)
	case *GetPostCommentsMsg:
		a.handleGetPostComments(context, msg)
	}
}

func (a *CommentActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	startTime := time.Now()

	if strings.TrimSpace(msg.Content) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "comment content cannot be empty", nil))
		return
	}

	ctx := stdctx.Background()
	author, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	post, err := a.store.GetPost(ctx, msg.PostID, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}

	comment := &models.Comment{
		ID:             uuid.New(),
		UserID:         msg.UserID,
		AuthorUsername: author.Username,
		PostID:         msg.PostID,
		Content:        msg.Content,
		CreatedAt:      time.Now(),
	}
	if err := a.store.SaveComment(ctx, comment); err != nil {
		context.Respond(err)
		return
	}

	// Tell the post author, unless they commented on their own post.
	if a.hub != nil && post.AuthorID != msg.UserID {
		postID := post.ID
		a.hub.NotifyUser(post.AuthorID, &models.Notification{
			Type:      "comment",
			ActorID:   author.ID,
			Actor:     author.Username,
			PostID:    &postID,
			CreatedAt: comment.CreatedAt,
		})
	}

	a.metrics.AddOperationLatency("create_comment", time.Since(startTime))
	context.Respond(comment)
}

func (a *CommentActor) handleGetPostComments(context actor.Context, msg *GetPostCommentsMsg) {
	ctx := stdctx.Background()

	// The post must exist; an unknown post is a 404, not an empty list.
	if _, err := a.store.GetPost(ctx, msg.PostID, uuid.Nil); err != nil {
		context.Respond(err)
		return
	}
	comments, err := a.store.GetPostComments(ctx, msg.PostID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(comments)
}
