// internal/database/post_repository.go
package database

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// PostDocument represents the MongoDB schema for a post. The author's
// username is denormalized at write time; usernames are immutable so the
// copy never goes stale.
type PostDocument struct {
	ID             string    `bson:"_id"`
	AuthorID       string    `bson:"authorId"`
	AuthorUsername string    `bson:"authorUsername"`
	Content        string    `bson:"content"`
	ImagePath      *string   `bson:"imagePath,omitempty"`
	CreatedAt      time.Time `bson:"createdAt"`
}

func (d *PostDocument) toModel() (*models.Post, error) {
	postID, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID in database: %v", err)
	}
	authorID, err := uuid.Parse(d.AuthorID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID in database: %v", err)
	}
	return &models.Post{
		ID:             postID,
		AuthorID:       authorID,
		AuthorUsername: d.AuthorUsername,
		Content:        d.Content,
		ImagePath:      d.ImagePath,
		CreatedAt:      d.CreatedAt,
	}, nil
}

// SavePost creates a post in MongoDB
func (m *MongoDB) SavePost(ctx context.Context, post *models.Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	// Resolve the author username for denormalization
	if post.AuthorUsername == "" {
		var author UserDocument
		err := m.Users.FindOne(ctx, bson.M{"_id": post.AuthorID.String()}).Decode(&author)
		if err == mongo.ErrNoDocuments {
			return utils.NewAppError(utils.ErrUserNotFound, "post author does not exist", err)
		}
		if err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to look up post author", err)
		}
		post.AuthorUsername = author.Username
	}

	doc := PostDocument{
		ID:             post.ID.String(),
		AuthorID:       post.AuthorID.String(),
		AuthorUsername: post.AuthorUsername,
		Content:        post.Content,
		ImagePath:      post.ImagePath,
		CreatedAt:      post.CreatedAt,
	}
	_, err := m.Posts.InsertOne(ctx, doc)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save post", err)
	}
	return nil
}

// GetPost retrieves a post by ID with fresh counts and viewer flags
func (m *MongoDB) GetPost(ctx context.Context, postID, viewerID uuid.UUID) (*models.Post, error) {
	var doc PostDocument
	err := m.Posts.FindOne(ctx, bson.M{"_id": postID.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewPostNotFoundError(postID.String())
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post by id", err)
	}
	post, err := doc.toModel()
	if err != nil {
		return nil, err
	}

	annotated, err := m.annotatePosts(ctx, []*models.Post{post}, viewerID)
	if err != nil {
		return nil, err
	}
	return annotated[0], nil
}

// UpdatePostContent replaces a post's content
func (m *MongoDB) UpdatePostContent(ctx context.Context, postID uuid.UUID, content string) error {
	result, err := m.Posts.UpdateOne(ctx,
		bson.M{"_id": postID.String()},
		bson.M{"$set": bson.M{"content": content}})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update post", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewPostNotFoundError(postID.String())
	}
	return nil
}

// DeletePost removes a post together with its comments and reactions
func (m *MongoDB) DeletePost(ctx context.Context, postID uuid.UUID) error {
	idStr := postID.String()

	if _, err := m.Reactions.DeleteMany(ctx, bson.M{"postId": idStr}); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete post reactions", err)
	}
	if _, err := m.Comments.DeleteMany(ctx, bson.M{"postId": idStr}); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete post comments", err)
	}

	result, err := m.Posts.DeleteOne(ctx, bson.M{"_id": idStr})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete post", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewPostNotFoundError(idStr)
	}
	return nil
}

// GetRecentPosts retrieves the newest posts across all authors
func (m *MongoDB) GetRecentPosts(ctx context.Context, limit, offset int, viewerID uuid.UUID) ([]*models.Post, error) {
	return m.findPosts(ctx, bson.M{}, limit, offset, viewerID)
}

// GetFollowingFeed retrieves posts from authors the user follows
func (m *MongoDB) GetFollowingFeed(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Post, error) {
	cursor, err := m.Follows.Find(ctx, bson.M{"currentUserId": userID.String()},
		options.Find().SetProjection(bson.M{"secondUserId": 1}))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query followed users", err)
	}
	var edges []struct {
		SecondUserID string `bson:"secondUserId"`
	}
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode followed users", err)
	}

	if len(edges) == 0 {
		return []*models.Post{}, nil
	}

	authorIDs := make([]string, len(edges))
	for i, e := range edges {
		authorIDs[i] = e.SecondUserID
	}
	return m.findPosts(ctx, bson.M{"authorId": bson.M{"$in": authorIDs}}, limit, offset, userID)
}

// GetUserPosts retrieves one author's posts, newest first
func (m *MongoDB) GetUserPosts(ctx context.Context, username string, viewerID uuid.UUID) ([]*models.Post, error) {
	return m.findPosts(ctx, bson.M{"authorUsername": username}, 0, 0, viewerID)
}

// SearchPosts finds posts whose content contains the query substring
func (m *MongoDB) SearchPosts(ctx context.Context, query string, limit, offset int, viewerID uuid.UUID) ([]*models.Post, error) {
	filter := bson.M{"content": bson.M{
		"$regex":   regexp.QuoteMeta(query),
		"$options": "i",
	}}
	return m.findPosts(ctx, filter, limit, offset, viewerID)
}

// findPosts runs a filtered, paginated post query and annotates the
// page. A limit of 0 means no limit.
func (m *MongoDB) findPosts(ctx context.Context, filter bson.M, limit, offset int, viewerID uuid.UUID) ([]*models.Post, error) {
	opts := options.Find().SetSort(bson.M{"createdAt": -1}).SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := m.Posts.Find(ctx, filter, opts)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query posts", err)
	}
	defer cursor.Close(ctx)

	posts := []*models.Post{}
	for cursor.Next(ctx) {
		var doc PostDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode post", err)
		}
		post, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := cursor.Err(); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "post cursor error", err)
	}

	return m.annotatePosts(ctx, posts, viewerID)
}

// annotatePosts fills counts and viewer flags for one page of posts with
// two batched queries instead of one per post.
func (m *MongoDB) annotatePosts(ctx context.Context, posts []*models.Post, viewerID uuid.UUID) ([]*models.Post, error) {
	if len(posts) == 0 {
		return posts, nil
	}

	index := make(map[string]*models.Post, len(posts))
	postIDs := make([]string, len(posts))
	for i, p := range posts {
		idStr := p.ID.String()
		index[idStr] = p
		postIDs[i] = idStr
	}
	viewer := viewerID.String()

	cursor, err := m.Reactions.Find(ctx, bson.M{"postId": bson.M{"$in": postIDs}})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query reactions", err)
	}
	var reactions []ReactionDocument
	if err := cursor.All(ctx, &reactions); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode reactions", err)
	}
	for _, r := range reactions {
		post := index[r.PostID]
		if post == nil {
			continue
		}
		switch models.ReactionKind(r.Kind) {
		case models.ReactionLike:
			post.LikesCount++
			if r.UserID == viewer {
				post.IsLiked = true
			}
		case models.ReactionDislike:
			post.DislikesCount++
			if r.UserID == viewer {
				post.IsDisliked = true
			}
		}
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"postId": bson.M{"$in": postIDs}}}},
		{{Key: "$group", Value: bson.M{"_id": "$postId", "count": bson.M{"$sum": 1}}}},
	}
	commentCursor, err := m.Comments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to count comments", err)
	}
	var commentCounts []struct {
		PostID string `bson:"_id"`
		Count  int    `bson:"count"`
	}
	if err := commentCursor.All(ctx, &commentCounts); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode comment counts", err)
	}
	for _, c := range commentCounts {
		if post := index[c.PostID]; post != nil {
			post.CommentsCount = c.Count
		}
	}

	return posts, nil
}

// Ping verifies the MongoDB connection is alive.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.Client.Ping(ctx, readpref.Primary())
}
