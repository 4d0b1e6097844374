package actors

import (
	"log"
	"path"
	"strings"
	"time"

	stdctx "context"

	"ripple-social/internal/database"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// Message types for Post operations
type (
	CreatePostMsg struct {
		AuthorID  uuid.UUID
		Content   string
		ImagePath *string
	}

	GetPostMsg struct {
		PostID   uuid.UUID
		ViewerID uuid.UUID
	}

	UpdatePostMsg struct {
		PostID  uuid.UUID
		UserID  uuid.UUID
		Content string
	}

	DeletePostMsg struct {
		PostID uuid.UUID
		UserID uuid.UUID
	}

	GetRecentPostsMsg struct {
		Limit    int
		Offset   int
		ViewerID uuid.UUID
	}

	GetFollowingFeedMsg struct {
		UserID uuid.UUID
		Limit  int
		Offset int
	}

	GetUserPostsMsg struct {
		Username string
		ViewerID uuid.UUID
	}

	SearchPostsMsg struct {
		Query    string
		Limit    int
		Offset   int
		ViewerID uuid.UUID
	}
)

// allowedImageExtensions limits post attachments to the supported
// formats.
var allowedImageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// PostActor handles post lifecycle and feed queries
type PostActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewPostActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &PostActor{
		store:   store,
		metrics: metrics,
	}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("PostActor started")
	case *actor.Stopping:
		log.Printf("PostActor stopping")

	case *CreatePostMsg:
		a.handleCreatePost(context, msg)
	case *GetPostMsg:
		a.handleGetPost(context, msg)
	case *UpdatePostMsg:
		a.handleUpdatePost(context, msg)
	case *DeletePostMsg:
		a.handleDeletePost(context, msg)
	case *GetRecentPostsMsg:
		a.handleGetRecentPosts(context, msg)
	case *GetFollowingFeedMsg:
		a.handleGetFollowingFeed(context, msg)
	case *GetUserPostsMsg:
		a.handleGetUserPosts(context, msg)
	case *SearchPostsMsg:
		a.handleSearchPosts(context, msg)
	}
}

// validatePostContent enforces the content bounds shared by create and
// update.
func validatePostContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return utils.NewAppError(utils.ErrInvalidInput, "post content cannot be empty", nil)
	}
	if len([]rune(content)) > models.MaxPostContentLength {
		return utils.NewAppError(utils.ErrInvalidInput, "post content exceeds 140 characters", nil)
	}
	return nil
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()

	if err := validatePostContent(msg.Content); err != nil {
		context.Respond(err)
		return
	}
	if msg.ImagePath != nil {
		ext := strings.ToLower(path.Ext(*msg.ImagePath))
		if !allowedImageExtensions[ext] {
			context.Respond(utils.NewAppError(utils.ErrInvalidInput, "image must be a jpg, jpeg or png file", nil))
			return
		}
	}

	post := &models.Post{
		ID:        uuid.New(),
		AuthorID:  msg.AuthorID,
		Content:   msg.Content,
		ImagePath: msg.ImagePath,
		CreatedAt: time.Now(),
	}

	ctx := stdctx.Background()
	if err := a.store.SavePost(ctx, post); err != nil {
		context.Respond(err)
		return
	}

	// Reread so the response carries the author username and zeroed
	// aggregates in the same shape as every other post payload.
	created, err := a.store.GetPost(ctx, post.ID, msg.AuthorID)
	if err != nil {
		context.Respond(err)
		return
	}

	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	context.Respond(created)
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	ctx := stdctx.Background()
	post, err := a.store.GetPost(ctx, msg.PostID, msg.ViewerID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(post)
}

func (a *PostActor) handleUpdatePost(context actor.Context, msg *UpdatePostMsg) {
	if err := validatePostContent(msg.Content); err != nil {
		context.Respond(err)
		return
	}

	ctx := stdctx.Background()
	post, err := a.store.GetPost(ctx, msg.PostID, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	if post.AuthorID != msg.UserID {
		context.Respond(utils.NewForbiddenError("only the author can edit this post"))
		return
	}

	if err := a.store.UpdatePostContent(ctx, msg.PostID, msg.Content); err != nil {
		context.Respond(err)
		return
	}
	updated, err := a.store.GetPost(ctx, msg.PostID, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(updated)
}

func (a *PostActor) handleDeletePost(context actor.Context, msg *DeletePostMsg) {
	startTime := time.Now()

	ctx := stdctx.Background()
	post, err := a.store.GetPost(ctx, msg.PostID, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	if post.AuthorID != msg.UserID {
		context.Respond(utils.NewForbiddenError("only the author can delete this post"))
		return
	}

	if err := a.store.DeletePost(ctx, msg.PostID); err != nil {
		context.Respond(err)
		return
	}
	a.metrics.AddOperationLatency("delete_post", time.Since(startTime))
	context.Respond(true)
}

func (a *PostActor) handleGetRecentPosts(context actor.Context, msg *GetRecentPostsMsg) {
	startTime := time.Now()

	ctx := stdctx.Background()
	posts, err := a.store.GetRecentPosts(ctx, msg.Limit, msg.Offset, msg.ViewerID)
	if err != nil {
		context.Respond(err)
		return
	}
	a.metrics.AddOperationLatency("get_recent_posts", time.Since(startTime))
	context.Respond(posts)
}

func (a *PostActor) handleGetFollowingFeed(context actor.Context, msg *GetFollowingFeedMsg) {
	startTime := time.Now()

	ctx := stdctx.Background()
	posts, err := a.store.GetFollowingFeed(ctx, msg.UserID, msg.Limit, msg.Offset)
	if err != nil {
		context.Respond(err)
		return
	}
	a.metrics.AddOperationLatency("get_following_feed", time.Since(startTime))
	context.Respond(posts)
}

func (a *PostActor) handleGetUserPosts(context actor.Context, msg *GetUserPostsMsg) {
	ctx := stdctx.Background()

	// Resolve the username first so an unknown author is a 404, not an
	// empty list.
	if _, err := a.store.GetUserByUsername(ctx, msg.Username); err != nil {
		context.Respond(err)
		return
	}
	posts, err := a.store.GetUserPosts(ctx, msg.Username, msg.ViewerID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(posts)
}

func (a *PostActor) handleSearchPosts(context actor.Context, msg *SearchPostsMsg) {
	if strings.TrimSpace(msg.Query) == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "search query cannot be empty", nil))
		return
	}

	ctx := stdctx.Background()
	posts, err := a.store.SearchPosts(ctx, msg.Query, msg.Limit, msg.Offset, msg.ViewerID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(posts)
}
