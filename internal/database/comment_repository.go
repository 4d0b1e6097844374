// internal/database/comment_repository.go
package database

import (
	"context"
	"fmt"
	"time"

	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentDocument represents the MongoDB schema for a comment
type CommentDocument struct {
	ID             string    `bson:"_id"`
	UserID         string    `bson:"userId"`
	AuthorUsername string    `bson:"authorUsername"`
	PostID         string    `bson:"postId"`
	Content        string    `bson:"content"`
	CreatedAt      time.Time `bson:"createdAt"`
}

func (d *CommentDocument) toModel() (*models.Comment, error) {
	commentID, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid comment ID in database: %v", err)
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %v", err)
	}
	postID, err := uuid.Parse(d.PostID)
	if err != nil {
		return nil, fmt.Errorf("invalid post ID in database: %v", err)
	}
	return &models.Comment{
		ID:             commentID,
		UserID:         userID,
		AuthorUsername: d.AuthorUsername,
		PostID:         postID,
		Content:        d.Content,
		CreatedAt:      d.CreatedAt,
	}, nil
}

// SaveComment creates a comment in MongoDB
func (m *MongoDB) SaveComment(ctx context.Context, comment *models.Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	// The post must exist; Mongo has no foreign keys to catch this.
	count, err := m.Posts.CountDocuments(ctx, bson.M{"_id": comment.PostID.String()})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to check post existence", err)
	}
	if count == 0 {
		return utils.NewPostNotFoundError(comment.PostID.String())
	}

	if comment.AuthorUsername == "" {
		var author UserDocument
		err := m.Users.FindOne(ctx, bson.M{"_id": comment.UserID.String()}).Decode(&author)
		if err == mongo.ErrNoDocuments {
			return utils.NewAppError(utils.ErrUserNotFound, "comment author does not exist", err)
		}
		if err != nil {
			return utils.NewAppError(utils.ErrDatabase, "failed to look up comment author", err)
		}
		comment.AuthorUsername = author.Username
	}

	doc := CommentDocument{
		ID:             comment.ID.String(),
		UserID:         comment.UserID.String(),
		AuthorUsername: comment.AuthorUsername,
		PostID:         comment.PostID.String(),
		Content:        comment.Content,
		CreatedAt:      comment.CreatedAt,
	}
	_, err = m.Comments.InsertOne(ctx, doc)
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to save comment", err)
	}
	return nil
}

// GetPostComments retrieves all comments on a post, newest first
func (m *MongoDB) GetPostComments(ctx context.Context, postID uuid.UUID) ([]*models.Comment, error) {
	cursor, err := m.Comments.Find(ctx,
		bson.M{"postId": postID.String()},
		options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query post comments", err)
	}
	defer cursor.Close(ctx)

	comments := []*models.Comment{}
	for cursor.Next(ctx) {
		var doc CommentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode comment", err)
		}
		comment, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	return comments, cursor.Err()
}
