package actorutil

import (
	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

// ActorWithStates runs an actor as a set of named states, each with its own
// receive function. The stack of state names mirrors the behavior stack.
type ActorWithStates struct {
	Behavior actor.Behavior
	names    []string
	logger   *zap.Logger
}

type ActorState interface {
	Name() string
	Receive(actor.Context)
}

// NewActorWithStates logs every transition at debug level on logger, which
// may be nil.
func NewActorWithStates(logger *zap.Logger) ActorWithStates {
	return ActorWithStates{
		Behavior: actor.NewBehavior(),
		logger:   logger,
	}
}

// StateName is the name of the state handling messages, empty before the
// first transition.
func (s *ActorWithStates) StateName() string {
	if len(s.names) == 0 {
		return ""
	}
	return s.names[len(s.names)-1]
}

func (s *ActorWithStates) Become(state ActorState) {
	s.logTransition(state.Name())
	s.names = []string{state.Name()}
	s.Behavior.Become(state.Receive)
}

func (s *ActorWithStates) BecomeStacked(state ActorState) {
	s.logTransition(state.Name())
	s.names = append(s.names, state.Name())
	s.Behavior.BecomeStacked(state.Receive)
}

func (s *ActorWithStates) UnbecomeStacked() {
	if len(s.names) > 1 {
		s.names = s.names[:len(s.names)-1]
	}
	s.Behavior.UnbecomeStacked()
}

func (s *ActorWithStates) logTransition(to string) {
	if s.logger == nil {
		return
	}
	s.logger.Debug("state transition", zap.String("from", s.StateName()), zap.String("to", to))
}
