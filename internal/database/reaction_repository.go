// internal/database/reaction_repository.go
package database

import (
	"context"
	"time"

	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ReactionDocument represents the MongoDB schema for a like or dislike
type ReactionDocument struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"userId"`
	PostID    string    `bson:"postId"`
	Kind      string    `bson:"kind"`
	CreatedAt time.Time `bson:"createdAt"`
}

// ToggleReaction flips the presence of a (user, post, kind) reaction:
// delete-if-present, otherwise insert. The unique index on the triple
// turns a concurrent duplicate insert into a duplicate key error, which
// means the reaction is present either way.
func (m *MongoDB) ToggleReaction(ctx context.Context, userID, postID uuid.UUID, kind models.ReactionKind) (bool, error) {
	count, err := m.Posts.CountDocuments(ctx, bson.M{"_id": postID.String()})
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to check post existence", err)
	}
	if count == 0 {
		return false, utils.NewPostNotFoundError(postID.String())
	}

	filter := bson.M{
		"userId": userID.String(),
		"postId": postID.String(),
		"kind":   string(kind),
	}

	result, err := m.Reactions.DeleteOne(ctx, filter)
	if err != nil {
		return false, utils.NewAppError(utils.ErrDatabase, "failed to delete reaction", err)
	}
	if result.DeletedCount > 0 {
		return false, nil
	}

	doc := ReactionDocument{
		ID:        uuid.New().String(),
		UserID:    userID.String(),
		PostID:    postID.String(),
		Kind:      string(kind),
		CreatedAt: time.Now(),
	}
	_, err = m.Reactions.InsertOne(ctx, doc)
	if err != nil {
		// A concurrent request inserted first; the reaction is present.
		if mongo.IsDuplicateKeyError(err) {
			return true, nil
		}
		return false, utils.NewAppError(utils.ErrDatabase, "failed to insert reaction", err)
	}
	return true, nil
}

// GetLikedPostIDs returns the subset of postIDs the user has liked
func (m *MongoDB) GetLikedPostIDs(ctx context.Context, userID uuid.UUID, postIDs []uuid.UUID) ([]uuid.UUID, error) {
	if len(postIDs) == 0 {
		return []uuid.UUID{}, nil
	}

	idStrs := make([]string, len(postIDs))
	for i, id := range postIDs {
		idStrs[i] = id.String()
	}

	cursor, err := m.Reactions.Find(ctx, bson.M{
		"userId": userID.String(),
		"kind":   string(models.ReactionLike),
		"postId": bson.M{"$in": idStrs},
	})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query liked posts", err)
	}
	defer cursor.Close(ctx)

	liked := []uuid.UUID{}
	for cursor.Next(ctx) {
		var doc ReactionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode reaction", err)
		}
		postID, err := uuid.Parse(doc.PostID)
		if err != nil {
			continue
		}
		liked = append(liked, postID)
	}
	return liked, cursor.Err()
}
