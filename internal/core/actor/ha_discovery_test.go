package actor

import (
	"testing"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/util"
	"github.com/berfenger/frameo2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHADiscoveryActor(t *testing.T) {

	cfg := util.LoadTestConfig()
	logger := zap.Must(zap.NewDevelopment())
	as := actorutil.NewActorSystemWithZapLogger(logger)
	defer as.Shutdown()

	requests := make(chan domain.PublishDiscoveryRequest, 1)
	mqttPID := as.Root.Spawn(actor.PropsFromFunc(func(ctx actor.Context) {
		switch msg := ctx.Message().(type) {
		case domain.ActorHealthRequest:
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MQTT, Healthy: true})
		case domain.PublishDiscoveryRequest:
			requests <- msg
		}
	}))

	as.Root.Spawn(actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&cfg, cfg.FrameDevices(), mqttPID, logger)
	}))

	var req domain.PublishDiscoveryRequest
	select {
	case req = <-requests:
	case <-time.After(5 * time.Second):
		t.Fatal("discovery not published")
	}

	bridge := domain.BridgeDevice(cfg.MQTT.BaseTopic)
	// bridge connectivity + frame connectivity, resolution and ip address
	require.Len(t, req.Sensors, 4)
	assert.Equal(t, bridge.Id, req.Sensors[0].Device.Id)

	require.Len(t, req.Lights, 1)
	light := req.Lights[0]
	assert.Equal(t, "living", light.Device.FrameId)
	assert.Equal(t, bridge.Id, light.Device.ViaDevice)
	assert.Equal(t, "Frameo", light.Device.Manufacturer)

	assert.Len(t, req.Buttons, len(domain.Buttons))
	assert.True(t, lo.EveryBy(req.Buttons, func(b domain.GenericButton) bool {
		return b.Device.FrameId == "living" && b.Device.Manufacturer == ""
	}))
}
