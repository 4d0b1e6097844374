package engine

import (
	"ripple-social/internal/database"
	"ripple-social/internal/engine/actors"
	"ripple-social/internal/utils"
	"ripple-social/internal/websocket"

	"github.com/asynkron/protoactor-go/actor"
)

// Engine spawns the domain actors and hands their PIDs to the HTTP
// layer. Each actor serializes access to its slice of the domain;
// cross-cutting consistency (toggles, the mutual follow flag) lives in
// the store's atomic operations.
type Engine struct {
	userActor     *actor.PID
	postActor     *actor.PID
	commentActor  *actor.PID
	reactionActor *actor.PID
	followActor   *actor.PID
}

func NewEngine(system *actor.ActorSystem, store database.Store, metrics *utils.MetricsCollector, hub *websocket.Hub) *Engine {
	context := system.Root

	userPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewUserActor(store, metrics)
	}))
	postPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewPostActor(store, metrics)
	}))
	commentPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewCommentActor(store, metrics, hub)
	}))
	reactionPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewReactionActor(store, metrics, hub)
	}))
	followPID := context.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return actors.NewFollowActor(store, metrics, hub)
	}))

	return &Engine{
		userActor:     userPID,
		postActor:     postPID,
		commentActor:  commentPID,
		reactionActor: reactionPID,
		followActor:   followPID,
	}
}

// GetUserActor returns the PID of the user actor
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetPostActor returns the PID of the post actor
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetCommentActor returns the PID of the comment actor
func (e *Engine) GetCommentActor() *actor.PID {
	return e.commentActor
}

// GetReactionActor returns the PID of the reaction actor
func (e *Engine) GetReactionActor() *actor.PID {
	return e.reactionActor
}

// GetFollowActor returns the PID of the follow actor
func (e *Engine) GetFollowActor() *actor.PID {
	return e.followActor
}
