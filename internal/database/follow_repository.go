// internal/database/follow_repository.go
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

// FollowDocument represents the MongoDB schema for a follow edge. Both
// usernames are denormalized for list views.
type FollowDocument struct {
	ID              string    `bson:"_id"`
	CurrentUserID   string    `bson:"currentUserId"`
	SecondUserID    string    `bson:"secondUserId"`
	EachOther       bool      `bson:"eachOther"`
	CreatedAt       time.Time `bson:"createdAt"`
	CurrentUsername string    `bson:"currentUsername"`
	SecondUsername  string    `bson:"secondUsername"`
}

func (d *FollowDocument) toModel() (*models.Follow, error) {
	followID, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid follow ID in database: %v", err)
	}
	currentUserID, err := uuid.Parse(d.CurrentUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid follower ID in database: %v", err)
	}
	secondUserID, err := uuid.Parse(d.SecondUserID)
	if err != nil {
		return nil, fmt.Errorf("invalid followee ID in database: %v", err)
	}
	return &models.Follow{
		ID:              followID,
		CurrentUserID:   currentUserID,
		SecondUserID:    secondUserID,
		EachOther:       d.EachOther,
		CreatedAt:       d.CreatedAt,
		CurrentUsername: d.CurrentUsername,
		SecondUsername:  d.SecondUsername,
	}, nil
}

// CreateFollow inserts a directed follow edge and updates the each_other
// flag on both directions. The unique index on (currentUserId,
// secondUserId) rejects concurrent duplicates.
func (m *MongoDB) CreateFollow(ctx context.Context, currentUserID, secondUserID uuid.UUID) (*models.Follow, error) {
	if currentUserID == secondUserID {
		return nil, utils.NewAppError(utils.ErrSelfFollow, "users cannot follow themselves", nil)
	}

	var current, second UserDocument
	err := m.Users.FindOne(ctx, bson.M{"_id": currentUserID.String()}).Decode(&current)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "follower does not exist", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to look up follower", err)
	}
	err = m.Users.FindOne(ctx, bson.M{"_id": secondUserID.String()}).Decode(&second)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "followee does not exist", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to look up followee", err)
	}

	follow := &models.Follow{
		ID:              uuid.New(),
		CurrentUserID:   currentUserID,
		SecondUserID:    secondUserID,
		CreatedAt:       time.Now(),
		CurrentUsername: current.Username,
		SecondUsername:  second.Username,
	}
	doc := FollowDocument{
		ID:              follow.ID.String(),
		CurrentUserID:   currentUserID.String(),
		SecondUserID:    secondUserID.String(),
		CreatedAt:       follow.CreatedAt,
		CurrentUsername: current.Username,
		SecondUsername:  second.Username,
	}

	if _, err := m.Follows.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, utils.NewAppError(utils.ErrAlreadyFollows, "already following this user", err)
		}
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to insert follow", err)
	}

	// If the reverse edge exists, mark both directions mutual.
	reverseFilter := bson.M{
		"currentUserId": secondUserID.String(),
		"secondUserId":  currentUserID.String(),
	}
	result, err := m.Follows.UpdateOne(ctx, reverseFilter, bson.M{"$set": bson.M{"eachOther": true}})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to update reverse each_other flag", err)
	}
	if result.MatchedCount > 0 {
		_, err = m.Follows.UpdateOne(ctx,
			bson.M{"_id": doc.ID},
			bson.M{"$set": bson.M{"eachOther": true}})
		if err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to update each_other flag", err)
		}
		follow.EachOther = true
	}

	return follow, nil
}

// DeleteFollow removes a follow edge and clears the reverse edge's
// each_other flag.
func (m *MongoDB) DeleteFollow(ctx context.Context, followID uuid.UUID) error {
	var doc FollowDocument
	err := m.Follows.FindOneAndDelete(ctx, bson.M{"_id": followID.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return utils.NewAppError(utils.ErrFollowNotFound, "follow relationship not found", err)
	}
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete follow", err)
	}

	_, err = m.Follows.UpdateOne(ctx, bson.M{
		"currentUserId": doc.SecondUserID,
		"secondUserId":  doc.CurrentUserID,
	}, bson.M{"$set": bson.M{"eachOther": false}})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to reset reverse each_other flag", err)
	}
	return nil
}

// GetFollow retrieves a follow edge by its ID
func (m *MongoDB) GetFollow(ctx context.Context, followID uuid.UUID) (*models.Follow, error) {
	var doc FollowDocument
	err := m.Follows.FindOne(ctx, bson.M{"_id": followID.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrFollowNotFound, "follow relationship not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query follow", err)
	}
	return doc.toModel()
}

// GetFollowByPair retrieves the directed edge for an ordered user pair
func (m *MongoDB) GetFollowByPair(ctx context.Context, currentUserID, secondUserID uuid.UUID) (*models.Follow, error) {
	var doc FollowDocument
	err := m.Follows.FindOne(ctx, bson.M{
		"currentUserId": currentUserID.String(),
		"secondUserId":  secondUserID.String(),
	}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrFollowNotFound, "follow relationship not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query follow by pair", err)
	}
	return doc.toModel()
}

// ListFollows retrieves follow edges, optionally filtered by either
// endpoint's username
func (m *MongoDB) ListFollows(ctx context.Context, currentUsername, secondUsername string) ([]*models.Follow, error) {
	filter := bson.M{}
	if currentUsername != "" {
		filter["currentUsername"] = currentUsername
	}
	if secondUsername != "" {
		filter["secondUsername"] = secondUsername
	}

	cursor, err := m.Follows.Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query follows", err)
	}
	defer cursor.Close(ctx)

	follows := []*models.Follow{}
	for cursor.Next(ctx) {
		var doc FollowDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode follow", err)
		}
		follow, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		follows = append(follows, follow)
	}
	return follows, cursor.Err()
}

// GetFollowing returns the users the given user follows
func (m *MongoDB) GetFollowing(ctx context.Context, userID uuid.UUID) ([]*models.User, error) {
	return m.followEndpoints(ctx, bson.M{"currentUserId": userID.String()}, "secondUserId")
}

// GetFollowers returns the users following the given user
func (m *MongoDB) GetFollowers(ctx context.Context, userID uuid.UUID) ([]*models.User, error) {
	return m.followEndpoints(ctx, bson.M{"secondUserId": userID.String()}, "currentUserId")
}

// followEndpoints resolves one side of the matching follow edges to full
// user models.
func (m *MongoDB) followEndpoints(ctx context.Context, filter bson.M, field string) ([]*models.User, error) {
	cursor, err := m.Follows.Find(ctx, filter, options.Find().SetProjection(bson.M{field: 1}))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query follows", err)
	}
	var edges []bson.M
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode follows", err)
	}

	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		if id, ok := e[field].(string); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	userCursor, err := m.Users.Find(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		options.Find().SetSort(bson.M{"username": 1}))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query follow users", err)
	}
	defer userCursor.Close(ctx)

	users := []*models.User{}
	for userCursor.Next(ctx) {
		var doc UserDocument
		if err := userCursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode user", err)
		}
		user, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, userCursor.Err()
}

// FollowStats counts the user's following and follower edges
func (m *MongoDB) FollowStats(ctx context.Context, userID uuid.UUID) (int, int, error) {
	following, err := m.Follows.CountDocuments(ctx, bson.M{"currentUserId": userID.String()})
	if err != nil {
		return 0, 0, utils.NewAppError(utils.ErrDatabase, "failed to count following", err)
	}
	followers, err := m.Follows.CountDocuments(ctx, bson.M{"secondUserId": userID.String()})
	if err != nil {
		return 0, 0, utils.NewAppError(utils.ErrDatabase, "failed to count followers", err)
	}
	return int(following), int(followers), nil
}
