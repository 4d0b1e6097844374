package actors

import (
	"log"
	"net/mail"
	"strings"
	"time"

	stdctx "context"

	"ripple-social/internal/database"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Message types for User operations
type (
	RegisterUserMsg struct {
		Username  string
		Email     string
		Password  string
		FirstName string
		LastName  string
	}

	LoginMsg struct {
		Username string
		Password string
	}

	GetUserProfileMsg struct {
		Username string
	}

	GetUserByIDMsg struct {
		UserID uuid.UUID
	}

	GetAllUsersMsg struct{}

	UpdateProfileMsg struct {
		UserID    uuid.UUID
		FirstName string
		LastName  string
		Email     string
	}

	ChangePasswordMsg struct {
		UserID      uuid.UUID
		OldPassword string
		NewPassword string
	}

	DeleteUserMsg struct {
		UserID uuid.UUID
	}
)

// LoginResponse carries the outcome of a login attempt back to the
// handler, which mints the JWT on success.
type LoginResponse struct {
	Success  bool
	UserID   uuid.UUID
	Username string
	Error    string
}

// UserActor handles registration, authentication and profile management
type UserActor struct {
	store   database.Store
	metrics *utils.MetricsCollector
}

func NewUserActor(store database.Store, metrics *utils.MetricsCollector) actor.Actor {
	return &UserActor{
		store:   store,
		metrics: metrics,
	}
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	return string(bytes), err
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		log.Printf("UserActor started")
	case *actor.Stopping:
		log.Printf("UserActor stopping")

	case *RegisterUserMsg:
		a.handleRegister(context, msg)
	case *LoginMsg:
		a.handleLogin(context, msg)
	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)
	case *GetUserByIDMsg:
		a.handleGetByID(context, msg)
	case *GetAllUsersMsg:
		a.handleGetAll(context)
	case *UpdateProfileMsg:
		a.handleUpdateProfile(context, msg)
	case *ChangePasswordMsg:
		a.handleChangePassword(context, msg)
	case *DeleteUserMsg:
		a.handleDelete(context, msg)
	}
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	startTime := time.Now()

	username := strings.TrimSpace(msg.Username)
	if username == "" {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "username is required", nil))
		return
	}
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "invalid email address", err))
		return
	}
	if len(msg.Password) < 8 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "password must be at least 8 characters", nil))
		return
	}

	hashedPassword, err := hashPassword(msg.Password)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "failed to hash password", err))
		return
	}

	user := &models.User{
		ID:             uuid.New(),
		Username:       username,
		Email:          msg.Email,
		HashedPassword: hashedPassword,
		FirstName:      msg.FirstName,
		LastName:       msg.LastName,
		JoinedAt:       time.Now(),
	}

	ctx := stdctx.Background()
	if err := a.store.SaveUser(ctx, user); err != nil {
		context.Respond(err)
		return
	}

	log.Printf("Registered user %s (%s)", user.Username, user.ID)
	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	context.Respond(user)
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	startTime := time.Now()

	ctx := stdctx.Background()
	user, err := a.store.GetUserByUsername(ctx, msg.Username)
	if err != nil {
		// Same response for unknown user and bad password.
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.Password)); err != nil {
		context.Respond(&LoginResponse{Success: false, Error: "Invalid credentials"})
		return
	}

	a.metrics.AddOperationLatency("login", time.Since(startTime))
	context.Respond(&LoginResponse{
		Success:  true,
		UserID:   user.ID,
		Username: user.Username,
	})
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	ctx := stdctx.Background()
	user, err := a.store.GetUserByUsername(ctx, msg.Username)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleGetByID(context actor.Context, msg *GetUserByIDMsg) {
	ctx := stdctx.Background()
	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleGetAll(context actor.Context) {
	ctx := stdctx.Background()
	users, err := a.store.GetAllUsers(ctx)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(users)
}

func (a *UserActor) handleUpdateProfile(context actor.Context, msg *UpdateProfileMsg) {
	if _, err := mail.ParseAddress(msg.Email); err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "invalid email address", err))
		return
	}

	ctx := stdctx.Background()
	if err := a.store.UpdateUserProfile(ctx, msg.UserID, msg.FirstName, msg.LastName, msg.Email); err != nil {
		context.Respond(err)
		return
	}
	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	context.Respond(user)
}

func (a *UserActor) handleChangePassword(context actor.Context, msg *ChangePasswordMsg) {
	if len(msg.NewPassword) < 8 {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "password must be at least 8 characters", nil))
		return
	}

	ctx := stdctx.Background()
	user, err := a.store.GetUser(ctx, msg.UserID)
	if err != nil {
		context.Respond(err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(msg.OldPassword)); err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidCredentials, "current password is incorrect", err))
		return
	}

	hashedPassword, err := hashPassword(msg.NewPassword)
	if err != nil {
		context.Respond(utils.NewAppError(utils.ErrInvalidInput, "failed to hash password", err))
		return
	}
	if err := a.store.UpdateUserPassword(ctx, msg.UserID, hashedPassword); err != nil {
		context.Respond(err)
		return
	}
	context.Respond(true)
}

func (a *UserActor) handleDelete(context actor.Context, msg *DeleteUserMsg) {
	ctx := stdctx.Background()
	if err := a.store.DeleteUser(ctx, msg.UserID); err != nil {
		context.Respond(err)
		return
	}
	log.Printf("Deleted user %s and all dependent records", msg.UserID)
	context.Respond(true)
}
