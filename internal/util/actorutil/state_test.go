package actorutil

import (
	"testing"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/require"
)

type namedState string

func (s namedState) Name() string {
	return string(s)
}

func (s namedState) Receive(actor.Context) {
}

func TestActorWithStatesTracksStateName(t *testing.T) {

	require := require.New(t)

	states := NewActorWithStates(nil)
	require.Equal("", states.StateName())

	states.Become(namedState("idle"))
	require.Equal("idle", states.StateName())

	states.BecomeStacked(namedState("health"))
	require.Equal("health", states.StateName())

	states.UnbecomeStacked()
	require.Equal("idle", states.StateName())

	states.BecomeStacked(namedState("busy"))
	states.Become(namedState("idle"))
	require.Equal("idle", states.StateName())
}
