package actorutil

import (
	"github.com/berfenger/frameo2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
)

type forRequest struct {
	req domain.ActorRequest
}

type ExtendedRequest interface {
	Respond(ctx actor.Context, resp domain.ActorResponse)
	ReplyTo(ctx actor.Context) *actor.PID
}

// ForRequest resolves who gets the response: the explicit ReplyToRef when
// set, the message sender otherwise.
func ForRequest(r domain.ActorRequest) ExtendedRequest {
	return forRequest{req: r}
}

func (r forRequest) Respond(ctx actor.Context, resp domain.ActorResponse) {
	if r.req.ReplyTo() != nil {
		ctx.Send(r.req.ReplyTo().PID(), resp)
	} else if ctx.Sender() != nil {
		ctx.Respond(resp)
	}
}

func (r forRequest) ReplyTo(ctx actor.Context) *actor.PID {
	if r.req.ReplyTo() != nil {
		return r.req.ReplyTo().PID()
	}
	return ctx.Sender()
}

// ReplyTo sends a response to pid, dropping it when nobody is waiting.
func ReplyTo(ctx actor.Context, pid *actor.PID, resp any) {
	if pid != nil {
		ctx.Send(pid, resp)
	}
}
