// internal/database/user_repository.go
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

// UserDocument represents the MongoDB schema for a user
type UserDocument struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	Email          string    `bson:"email"`
	HashedPassword string    `bson:"hashedPassword"`
	FirstName      string    `bson:"firstName"`
	LastName       string    `bson:"lastName"`
	JoinedAt       time.Time `bson:"joinedAt"`
}

func (d *UserDocument) toModel() (*models.User, error) {
	userID, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID in database: %v", err)
	}
	return &models.User{
		ID:             userID,
		Username:       d.Username,
		Email:          d.Email,
		HashedPassword: d.HashedPassword,
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		JoinedAt:       d.JoinedAt,
	}, nil
}

// SaveUser creates a user in MongoDB
func (m *MongoDB) SaveUser(ctx context.Context, user *models.User) error {
	if user.JoinedAt.IsZero() {
		user.JoinedAt = time.Now()
	}
	doc := UserDocument{
		ID:             user.ID.String(),
		Username:       user.Username,
		Email:          user.Email,
		HashedPassword: user.HashedPassword,
		FirstName:      user.FirstName,
		LastName:       user.LastName,
		JoinedAt:       user.JoinedAt,
	}

	_, err := m.Users.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "user already exists", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to save user", err)
	}
	return nil
}

// GetUser retrieves a user from MongoDB by their ID
func (m *MongoDB) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by id", err)
	}
	return doc.toModel()
}

// GetUserByUsername retrieves a user by username and annotates the
// profile counts with three count queries.
func (m *MongoDB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, bson.M{"username": username}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewUserNotFoundError(username)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by username", err)
	}
	user, err := doc.toModel()
	if err != nil {
		return nil, err
	}

	postsCount, err := m.Posts.CountDocuments(ctx, bson.M{"authorId": doc.ID})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to count posts", err)
	}
	followersCount, err := m.Follows.CountDocuments(ctx, bson.M{"secondUserId": doc.ID})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to count followers", err)
	}
	followingCount, err := m.Follows.CountDocuments(ctx, bson.M{"currentUserId": doc.ID})
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to count following", err)
	}

	user.PostsCount = int(postsCount)
	user.FollowersCount = int(followersCount)
	user.FollowingCount = int(followingCount)
	return user, nil
}

// GetUserByEmail retrieves a user from MongoDB by their email address
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc UserDocument
	err := m.Users.FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, utils.NewAppError(utils.ErrUserNotFound, "user not found", err)
	}
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query user by email", err)
	}
	return doc.toModel()
}

// GetAllUsers retrieves every user, newest first
func (m *MongoDB) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	cursor, err := m.Users.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"joinedAt": -1}))
	if err != nil {
		return nil, utils.NewAppError(utils.ErrDatabase, "failed to query users", err)
	}
	defer cursor.Close(ctx)

	users := []*models.User{}
	for cursor.Next(ctx) {
		var doc UserDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, utils.NewAppError(utils.ErrDatabase, "failed to decode user", err)
		}
		user, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, cursor.Err()
}

// UpdateUserProfile updates the mutable profile fields
func (m *MongoDB) UpdateUserProfile(ctx context.Context, id uuid.UUID, firstName, lastName, email string) error {
	filter := bson.M{"_id": id.String()}
	update := bson.M{"$set": bson.M{
		"firstName": firstName,
		"lastName":  lastName,
		"email":     email,
	}}

	result, err := m.Users.UpdateOne(ctx, filter, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return utils.NewAppError(utils.ErrDuplicate, "email already in use", err)
		}
		return utils.NewAppError(utils.ErrDatabase, "failed to update user profile", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for profile update", nil)
	}
	return nil
}

// UpdateUserPassword replaces the stored password hash
func (m *MongoDB) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := m.Users.UpdateOne(ctx,
		bson.M{"_id": id.String()},
		bson.M{"$set": bson.M{"hashedPassword": passwordHash}})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to update password", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for password update", nil)
	}
	return nil
}

// DeleteUser removes the user and all dependent documents. MongoDB gives
// no cross-collection transaction on a standalone server, so this runs
// as a best-effort cascade in dependency order: dependents first, the
// user document last.
func (m *MongoDB) DeleteUser(ctx context.Context, id uuid.UUID) error {
	idStr := id.String()

	// Collect the user's post IDs so reactions and comments on those
	// posts go too.
	cursor, err := m.Posts.Find(ctx, bson.M{"authorId": idStr},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to list user posts", err)
	}
	var postDocs []struct {
		ID string `bson:"_id"`
	}
	if err := cursor.All(ctx, &postDocs); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to decode user posts", err)
	}
	postIDs := make([]string, len(postDocs))
	for i, d := range postDocs {
		postIDs[i] = d.ID
	}

	dependentFilter := bson.M{"$or": []bson.M{
		{"userId": idStr},
		{"postId": bson.M{"$in": postIDs}},
	}}
	if _, err := m.Reactions.DeleteMany(ctx, dependentFilter); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete reactions", err)
	}
	if _, err := m.Comments.DeleteMany(ctx, dependentFilter); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete comments", err)
	}
	if _, err := m.Posts.DeleteMany(ctx, bson.M{"authorId": idStr}); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete posts", err)
	}
	if _, err := m.Follows.DeleteMany(ctx, bson.M{"$or": []bson.M{
		{"currentUserId": idStr},
		{"secondUserId": idStr},
	}}); err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete follows", err)
	}

	result, err := m.Users.DeleteOne(ctx, bson.M{"_id": idStr})
	if err != nil {
		return utils.NewAppError(utils.ErrDatabase, "failed to delete user", err)
	}
	if result.DeletedCount == 0 {
		return utils.NewAppError(utils.ErrUserNotFound, "user not found for delete", nil)
	}
	return nil
}
