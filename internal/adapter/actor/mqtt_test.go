package actor

import (
	"testing"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/events"
	"github.com/berfenger/frameo2mqtt/internal/util"
	"github.com/berfenger/frameo2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMQTTActor(t *testing.T) {

	cfg := util.LoadTestConfig()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	context := as.Root

	es := &eventstream.EventStream{}
	published := make(chan TestPublished, 32)
	spawned := make(chan *actor.PID, 1)

	// the test actor reports publications to its parent
	probe := actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case *actor.Started:
			spawned <- ctx.Spawn(actor.PropsFromProducer(func() actor.Actor { return NewTestMQTTActor(&cfg, es, logger) }))
		case TestPublished:
			published <- msg
		}
	})
	pid := context.Spawn(probe)
	defer context.Stop(pid)

	mqttPID := <-spawned
	time.Sleep(500 * time.Millisecond)

	result, err := context.RequestFuture(mqttPID, domain.ActorHealthRequest{}, 2*time.Second).Result()
	require.NoError(t, err)
	resp, ok := result.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, resp.Healthy)

	state := &domain.DeviceState{IsOn: true, Brightness: 90, ScreenWidth: 1280, ScreenHeight: 800, IPAddress: "192.168.1.50"}
	for _, ev := range events.DeviceStateToUpdateEvents("living", state, true) {
		es.Publish(ev)
	}
	es.Publish(events.BridgeOnlineEvent(true))

	got := map[string]TestPublished{}
	timeout := time.After(3 * time.Second)
	for len(got) < 6 {
		select {
		case p := <-published:
			got[p.Topic] = p
		case <-timeout:
			t.Fatalf("only %d messages published: %v", len(got), got)
		}
	}

	assert.JSONEq(t, `{"state":"ON","brightness":90}`, got["frameo/living/light/state"].Payload)
	assert.Equal(t, "1280x800", got["frameo/living/sensor/screen_resolution/state"].Payload)
	assert.Equal(t, "192.168.1.50", got["frameo/living/sensor/ip_address/state"].Payload)
	assert.Equal(t, "on", got["frameo/living/binary_sensor/connectivity/state"].Payload)
	assert.Equal(t, "online", got["frameo/living/availability"].Payload)
	assert.True(t, got["frameo/living/availability"].Retain)
	assert.Equal(t, "online", got["frameo/bridge/state"].Payload)
}
