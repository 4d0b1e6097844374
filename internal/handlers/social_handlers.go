package handlers

import (
	"encoding/json"
	"net/http"

	"ripple-social/internal/engine/actors"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"

	"github.com/google/uuid"
)

// CreateFollowRequest targets the user to follow, by username or ID.
type CreateFollowRequest struct {
	Username     string `json:"username,omitempty"`
	SecondUserID string `json:"second_user_id,omitempty"`
}

// HandleCreateFollow makes the caller follow another user
func (s *Server) HandleCreateFollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		currentUserID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req CreateFollowRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, utils.NewAppError(utils.ErrInvalidInput, "invalid request body", err))
			return
		}

		secondUserID, err := s.resolveFollowTarget(&req)
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetFollowActor(), &actors.CreateFollowMsg{
			CurrentUserID: currentUserID,
			SecondUserID:  secondUserID,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, result)
	}
}

// resolveFollowTarget turns the request body into a user ID, resolving
// a username through the user actor when no ID was given.
func (s *Server) resolveFollowTarget(req *CreateFollowRequest) (uuid.UUID, error) {
	if req.SecondUserID != "" {
		id, err := uuid.Parse(req.SecondUserID)
		if err != nil {
			return uuid.Nil, utils.NewAppError(utils.ErrInvalidInput, "invalid second_user_id", err)
		}
		return id, nil
	}
	if req.Username == "" {
		return uuid.Nil, utils.NewAppError(utils.ErrInvalidInput, "username or second_user_id is required", nil)
	}

	result, err := s.ask(s.Engine.GetUserActor(), &actors.GetUserProfileMsg{Username: req.Username})
	if err != nil {
		return uuid.Nil, err
	}
	user, ok := result.(*models.User)
	if !ok {
		return uuid.Nil, utils.NewAppError(utils.ErrDatabase, "internal server error", nil)
	}
	return user.ID, nil
}

// HandleListFollows lists follow edges, filterable by either endpoint's
// username
func (s *Server) HandleListFollows() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ask(s.Engine.GetFollowActor(), &actors.ListFollowsMsg{
			CurrentUsername: r.URL.Query().Get("currentUser"),
			SecondUsername:  r.URL.Query().Get("secondUser"),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleUnfollow removes a follow edge; only the follower who created
// it may remove it
func (s *Server) HandleUnfollow() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		followID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		if _, err := s.ask(s.Engine.GetFollowActor(), &actors.UnfollowMsg{
			FollowID: followID,
			UserID:   userID,
		}); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "unfollowed"})
	}
}

// HandleFollowingFeed returns posts authored by users the caller
// follows
func (s *Server) HandleFollowingFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		limit, offset := pagination(r)

		result, err := s.ask(s.Engine.GetPostActor(), &actors.GetFollowingFeedMsg{
			UserID: userID,
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}
