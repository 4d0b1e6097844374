package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"ripple-social/internal/engine/actors"
	"ripple-social/internal/middleware"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"
)

// RegisterUserRequest represents a request to register a new user
type RegisterUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// LoginRequest represents a request to log in a user
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse represents a response to a login request
type LoginResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token,omitempty"`
	Error    string `json:"error,omitempty"`
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username,omitempty"`
}

// UpdateProfileRequest represents a request to update profile fields
type UpdateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// HandleRegister handles requests to register a new user
func (s *Server) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, utils.NewAppError(utils.ErrInvalidInput, "invalid request body", err))
			return
		}

		result, err := s.ask(s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		})
		if err != nil {
			respondError(w, err)
			return
		}

		respondJSON(w, http.StatusCreated, result)
	}
}

// HandleLogin handles login requests. The actor verifies credentials;
// the JWT is minted here on success.
func (s *Server) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, utils.NewAppError(utils.ErrInvalidInput, "invalid request body", err))
			return
		}

		result, err := s.ask(s.Engine.GetUserActor(), &actors.LoginMsg{
			Username: req.Username,
			Password: req.Password,
		})
		if err != nil {
			respondError(w, err)
			return
		}

		loginResp, ok := result.(*actors.LoginResponse)
		if !ok {
			log.Printf("Unexpected login response type: %T", result)
			respondError(w, utils.NewAppError(utils.ErrDatabase, "internal server error", nil))
			return
		}

		if !loginResp.Success {
			respondJSON(w, http.StatusUnauthorized, LoginResponse{
				Success: false,
				Error:   loginResp.Error,
			})
			return
		}

		token, err := middleware.GenerateToken(loginResp.UserID)
		if err != nil {
			log.Printf("Failed to generate token: %v", err)
			respondError(w, utils.NewAppError(utils.ErrDatabase, "failed to generate auth token", err))
			return
		}

		respondJSON(w, http.StatusOK, LoginResponse{
			Success:  true,
			Token:    token,
			UserID:   loginResp.UserID.String(),
			Username: loginResp.Username,
		})
	}
}

// HandleLogout acknowledges a logout. Tokens are stateless, so the
// client discards its copy; the endpoint exists so clients have a
// uniform auth surface.
func (s *Server) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := requireUser(w, r); !ok {
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// HandleCurrentUser returns the authenticated caller's profile
func (s *Server) HandleCurrentUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		result, err := s.ask(s.Engine.GetUserActor(), &actors.GetUserByIDMsg{UserID: userID})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleUpdateProfile updates the caller's profile fields
func (s *Server) HandleUpdateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, utils.NewAppError(utils.ErrInvalidInput, "invalid request body", err))
			return
		}

		result, err := s.ask(s.Engine.GetUserActor(), &actors.UpdateProfileMsg{
			UserID:    userID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleChangePassword changes the caller's password after verifying
// the current one
func (s *Server) HandleChangePassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, utils.NewAppError(utils.ErrInvalidInput, "invalid request body", err))
			return
		}

		if _, err := s.ask(s.Engine.GetUserActor(), &actors.ChangePasswordMsg{
			UserID:      userID,
			OldPassword: req.OldPassword,
			NewPassword: req.NewPassword,
		}); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// HandleDeleteAccount deletes the caller's account and everything
// hanging off it
func (s *Server) HandleDeleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		if _, err := s.ask(s.Engine.GetUserActor(), &actors.DeleteUserMsg{UserID: userID}); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// HandleListUsers returns every registered user
func (s *Server) HandleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ask(s.Engine.GetUserActor(), &actors.GetAllUsersMsg{})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleUserProfile returns a public profile with derived counts
func (s *Server) HandleUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ask(s.Engine.GetUserActor(), &actors.GetUserProfileMsg{
			Username: r.PathValue("username"),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleUserPosts returns one author's posts, annotated for the caller
func (s *Server) HandleUserPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ask(s.Engine.GetPostActor(), &actors.GetUserPostsMsg{
			Username: r.PathValue("username"),
			ViewerID: viewerID(r),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleUserFollowers lists the users following the named user
func (s *Server) HandleUserFollowers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ask(s.Engine.GetFollowActor(), &actors.GetFollowersMsg{
			Username: r.PathValue("username"),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleUserFollowing lists the users the named user follows
func (s *Server) HandleUserFollowing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ask(s.Engine.GetFollowActor(), &actors.GetFollowingMsg{
			Username: r.PathValue("username"),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleFollowStats returns the named user's follower and following
// counts
func (s *Server) HandleFollowStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := s.ask(s.Engine.GetFollowActor(), &actors.FollowStatsMsg{
			Username: r.PathValue("username"),
		})
		if err != nil {
			respondError(w, err)
			return
		}

		stats, ok := result.(*models.FollowStats)
		if !ok {
			respondError(w, utils.NewAppError(utils.ErrDatabase, "internal server error", nil))
			return
		}
		respondJSON(w, http.StatusOK, stats)
	}
}
