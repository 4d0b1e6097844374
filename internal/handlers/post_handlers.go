package handlers

import (
	"encoding/json"
	"net/http"

	"ripple-social/internal/engine/actors"
	"ripple-social/internal/models"
	"ripple-social/internal/utils"
)

// CreatePostRequest represents a request to create a post
type CreatePostRequest struct {
	Content   string  `json:"content"`
	ImagePath *string `json:"imagePath,omitempty"`
}

// UpdatePostRequest represents a request to edit a post's content
type UpdatePostRequest struct {
	Content string `json:"content"`
}

// AddCommentRequest represents a request to comment on a post
type AddCommentRequest struct {
	Content string `json:"content"`
}

// HandleCreatePost creates a post authored by the caller
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var req CreatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, utils.NewAppError(utils.ErrInvalidInput, "invalid request body", err))
			return
		}

		result, err := s.ask(s.Engine.GetPostActor(), &actors.CreatePostMsg{
			AuthorID:  userID,
			Content:   req.Content,
			ImagePath: req.ImagePath,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, result)
	}
}

// HandleGlobalFeed returns the newest posts across all authors,
// annotated with the caller's reaction flags when authenticated
func (s *Server) HandleGlobalFeed() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pagination(r)

		result, err := s.ask(s.Engine.GetPostActor(), &actors.GetRecentPostsMsg{
			Limit:    limit,
			Offset:   offset,
			ViewerID: viewerID(r),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleSearchPosts finds posts matching a content substring
func (s *Server) HandleSearchPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, offset := pagination(r)

		result, err := s.ask(s.Engine.GetPostActor(), &actors.SearchPostsMsg{
			Query:    r.URL.Query().Get("q"),
			Limit:    limit,
			Offset:   offset,
			ViewerID: viewerID(r),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleGetPost returns one post with fresh counts and viewer flags
func (s *Server) HandleGetPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetPostActor(), &actors.GetPostMsg{
			PostID:   postID,
			ViewerID: viewerID(r),
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleUpdatePost edits a post; only the author may do so
func (s *Server) HandleUpdatePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var req UpdatePostRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, utils.NewAppError(utils.ErrInvalidInput, "invalid request body", err))
			return
		}

		result, err := s.ask(s.Engine.GetPostActor(), &actors.UpdatePostMsg{
			PostID:  postID,
			UserID:  userID,
			Content: req.Content,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleDeletePost deletes a post; only the author may do so
func (s *Server) HandleDeletePost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		if _, err := s.ask(s.Engine.GetPostActor(), &actors.DeletePostMsg{
			PostID: postID,
			UserID: userID,
		}); err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// ToggleReactionResponse reports what the toggle did plus the
// reannotated post.
type ToggleReactionResponse struct {
	Status string       `json:"status"`
	Post   *models.Post `json:"post"`
}

// toggleStatus maps the toggle outcome to its status verb.
func toggleStatus(kind models.ReactionKind, added bool) string {
	switch {
	case kind == models.ReactionLike && added:
		return "liked"
	case kind == models.ReactionLike:
		return "unliked"
	case added:
		return "disliked"
	default:
		return "undisliked"
	}
}

// HandleToggleReaction flips the caller's like or dislike on a post and
// returns the new state with the reannotated post
func (s *Server) HandleToggleReaction(kind models.ReactionKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetReactionActor(), &actors.ToggleReactionMsg{
			UserID: userID,
			PostID: postID,
			Kind:   kind,
		})
		if err != nil {
			respondError(w, err)
			return
		}

		toggle, ok := result.(*actors.ToggleReactionResult)
		if !ok {
			respondError(w, utils.NewAppError(utils.ErrDatabase, "internal server error", nil))
			return
		}
		respondJSON(w, http.StatusOK, ToggleReactionResponse{
			Status: toggleStatus(kind, toggle.Active),
			Post:   toggle.Post,
		})
	}
}

// HandlePostComments lists a post's comments, newest first
func (s *Server) HandlePostComments() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		result, err := s.ask(s.Engine.GetCommentActor(), &actors.GetPostCommentsMsg{PostID: postID})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleAddComment adds a comment by the caller to a post
func (s *Server) HandleAddComment() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}
		postID, err := pathUUID(r, "id")
		if err != nil {
			respondError(w, err)
			return
		}

		var req AddCommentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, utils.NewAppError(utils.ErrInvalidInput, "invalid request body", err))
			return
		}

		result, err := s.ask(s.Engine.GetCommentActor(), &actors.CreateCommentMsg{
			UserID:  userID,
			PostID:  postID,
			Content: req.Content,
		})
		if err != nil {
			respondError(w, err)
			return
		}
		respondJSON(w, http.StatusCreated, result)
	}
}
