package domain

import (
	"github.com/asynkron/protoactor-go/actor"
)

// ActorRef keeps protoactor types out of message definitions.
type ActorRef actor.PID

func (r *ActorRef) PID() *actor.PID {
	return (*actor.PID)(r)
}

// ActorRequestMixIn lets a request name its recipient explicitly, for
// requests relayed by an actor that is not waiting for the answer.
type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

func ReplyToPID(pid *actor.PID) ActorRequestMixIn {
	return ActorRequestMixIn{ReplyToRef: (*ActorRef)(pid)}
}

// ActorResponseMixIn carries a failure back in place of a result. Frame
// responses still hold the device status and the last known state.
type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

func ErrorResponse(err error) ActorResponseMixIn {
	return ActorResponseMixIn{ResponseError: err}
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}
