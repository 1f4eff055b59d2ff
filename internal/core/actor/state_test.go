package actor

import (
	"testing"
	"time"

	adactor "github.com/berfenger/frameo2mqtt/internal/adapter/actor"
	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/service"
	"github.com/berfenger/frameo2mqtt/internal/util/actorutil"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFrameStateActor(t *testing.T) {

	require := require.New(t)

	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	published := make(chan any, 64)
	es := &eventstream.EventStream{}
	sub := es.Subscribe(func(evt any) {
		published <- evt
	})
	defer es.Unsubscribe(sub)

	tr := frameo.CreateTestTransport()
	controller := service.NewTestFrameController("living", tr, logger)
	framePID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewFrameActor(controller, 5*time.Second, logger)
	}))
	statePID := as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewFrameStateActor(controller.Device(), framePID, es, 0, 5*time.Second, logger)
	}))

	// initial refresh
	var resolution, availability any
	timeout := time.After(5 * time.Second)
	for resolution == nil || availability == nil {
		select {
		case evt := <-published:
			switch ev := evt.(type) {
			case domain.TextSensorUpdateEvent:
				if ev.Id == domain.SENSOR_ID_RESOLUTION {
					resolution = ev.Value
				}
			case domain.AvailabilityUpdateEvent:
				availability = ev.Available
			}
		case <-timeout:
			t.Fatal("initial state not published")
		}
	}
	require.Equal("800x1280", resolution)
	require.Equal(true, availability)

	tr.ShellResults = []frameo.TestShellResult{{Output: "ok"}}
	res, err := as.Root.RequestFuture(statePID, domain.ExecuteCommandRequest{
		FrameCommandRequestMixIn: domain.ForDevice("living"),
		RequestId:                "req-7",
		Command:                  "echo ok",
	}, 10*time.Second).Result()
	require.NoError(err)
	exec, ok := res.(domain.ExecuteCommandResponse)
	require.True(ok)
	require.Equal("ok", exec.Result)

	timeout = time.After(5 * time.Second)
	for found := false; !found; {
		select {
		case evt := <-published:
			if ev, ok := evt.(domain.CommandResultEvent); ok {
				require.Equal("req-7", ev.RequestId)
				require.Equal("ok", ev.Result)
				require.True(ev.Success)
				found = true
			}
		case <-timeout:
			t.Fatal("command result not published")
		}
	}

	res, err = as.Root.RequestFuture(statePID, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(err)
	health := res.(domain.ActorHealthResponse)
	assert.True(t, health.Healthy)
	assert.Equal(t, domain.StateActorId("living"), health.Id)
}
