package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"ripple-social/internal/engine"
	"ripple-social/internal/middleware"
	"ripple-social/internal/utils"
	"ripple-social/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
)

// DefaultPageSize is the feed page size when the client does not ask
// for one.
const DefaultPageSize = 10

// Server holds all server dependencies, including the actor system and
// engine
type Server struct {
	System         *actor.ActorSystem
	Context        *actor.RootContext
	Engine         *engine.Engine
	Metrics        *utils.MetricsCollector
	Hub            *websocket.Hub
	RequestTimeout time.Duration
}

// NewServer creates a new Server instance with the given components
func NewServer(
	system *actor.ActorSystem,
	eng *engine.Engine,
	metrics *utils.MetricsCollector,
	hub *websocket.Hub,
) *Server {
	return &Server{
		System:         system,
		Context:        system.Root,
		Engine:         eng,
		Metrics:        metrics,
		Hub:            hub,
		RequestTimeout: 5 * time.Second,
	}
}

// Routes wires every endpoint onto a ServeMux. Method and path-value
// matching is left to the mux patterns.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Users
	mux.HandleFunc("POST /users/register", s.HandleRegister())
	mux.HandleFunc("POST /users/login", s.HandleLogin())
	mux.HandleFunc("POST /users/logout", s.HandleLogout())
	mux.HandleFunc("GET /users/me", s.HandleCurrentUser())
	mux.HandleFunc("PUT /users/me", s.HandleUpdateProfile())
	mux.HandleFunc("DELETE /users/me", s.HandleDeleteAccount())
	mux.HandleFunc("POST /users/change-password", s.HandleChangePassword())
	mux.HandleFunc("GET /users", s.HandleListUsers())
	mux.HandleFunc("GET /users/{username}", s.HandleUserProfile())
	mux.HandleFunc("GET /users/{username}/posts", s.HandleUserPosts())
	mux.HandleFunc("GET /users/{username}/followers", s.HandleUserFollowers())
	mux.HandleFunc("GET /users/{username}/following", s.HandleUserFollowing())
	mux.HandleFunc("GET /users/{username}/follow-stats", s.HandleFollowStats())

	// Posts
	mux.HandleFunc("POST /posts", s.HandleCreatePost())
	mux.HandleFunc("GET /posts", s.HandleGlobalFeed())
	mux.HandleFunc("GET /posts/search", s.HandleSearchPosts())
	mux.HandleFunc("GET /posts/{id}", s.HandleGetPost())
	mux.HandleFunc("PUT /posts/{id}", s.HandleUpdatePost())
	mux.HandleFunc("DELETE /posts/{id}", s.HandleDeletePost())
	mux.HandleFunc("POST /posts/{id}/like", s.HandleToggleReaction("like"))
	mux.HandleFunc("POST /posts/{id}/dislike", s.HandleToggleReaction("dislike"))
	mux.HandleFunc("GET /posts/{id}/comments", s.HandlePostComments())
	mux.HandleFunc("POST /posts/{id}/add_comment", s.HandleAddComment())

	// Social graph
	mux.HandleFunc("POST /social/follows", s.HandleCreateFollow())
	mux.HandleFunc("GET /social/follows", s.HandleListFollows())
	mux.HandleFunc("POST /social/follows/{id}/unfollow", s.HandleUnfollow())
	mux.HandleFunc("GET /social/following-posts", s.HandleFollowingFeed())

	// Notifications and health
	mux.HandleFunc("GET /ws/notifications", s.HandleWebSocket())
	mux.HandleFunc("GET /health", s.HandleHealth())

	return mux
}

// errorResponse is the JSON error body for every failed request.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("Failed to encode response: %v", err)
		}
	}
}

func respondError(w http.ResponseWriter, err error) {
	if appErr, ok := err.(*utils.AppError); ok {
		respondJSON(w, utils.AppErrorToHTTPStatus(appErr.Code), errorResponse{
			Code:    appErr.Code,
			Message: appErr.Message,
		})
		return
	}
	log.Printf("Unhandled error: %v", err)
	respondJSON(w, http.StatusInternalServerError, errorResponse{
		Code:    utils.ErrDatabase,
		Message: "internal server error",
	})
}

// ask sends a message to an actor and waits for the reply, folding
// timeouts and AppError replies into a single error return.
func (s *Server) ask(pid *actor.PID, msg interface{}) (interface{}, error) {
	future := s.Context.RequestFuture(pid, msg, s.RequestTimeout)
	result, err := future.Result()
	if err != nil {
		return nil, utils.NewActorTimeoutError(err.Error())
	}
	if appErr, ok := result.(*utils.AppError); ok {
		return nil, appErr
	}
	return result, nil
}

// requireUser extracts the authenticated caller or writes a 403. Write
// operations treat an anonymous caller as forbidden rather than
// unauthorized: the request is understood, just not permitted.
func requireUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		respondJSON(w, http.StatusForbidden, errorResponse{
			Code:    utils.ErrForbidden,
			Message: "authentication required",
		})
		return uuid.Nil, false
	}
	return userID, true
}

// viewerID extracts the caller's ID for read annotation, uuid.Nil when
// anonymous.
func viewerID(r *http.Request) uuid.UUID {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil
	}
	return userID
}

// pathUUID parses a UUID path value.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, utils.NewAppError(utils.ErrInvalidInput, "invalid "+name+" in path", err)
	}
	return id, nil
}

// pagination reads limit/offset query parameters, with page as an
// alternative to offset.
func pagination(r *http.Request) (limit, offset int) {
	limit = DefaultPageSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
		return limit, offset
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// HandleHealth reports process health and an operation latency
// snapshot.
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"time":    time.Now().UTC(),
			"metrics": s.Metrics.GetSnapshot(),
		})
	}
}
