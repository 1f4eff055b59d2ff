package actor

import (
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/config"
	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	HADISCOVERY_HEALTH_TIMEOUT = 15 * time.Second
)

var ErrMQTTNotHealthy = errors.New("MQTT actor is not healthy")

// HADiscoveryActor publishes the Home Assistant discovery components of the
// bridge and every frame once MQTT is up, then stays idle.
type HADiscoveryActor struct {
	config    *config.Config
	behavior  actor.Behavior
	stash     *actorutil.Stash
	devices   []domain.FrameDevice
	mqttActor *actor.PID

	logger *zap.Logger
}

func NewHADiscoveryActor(config *config.Config, devices []domain.FrameDevice, mqttActor *actor.PID, logger *zap.Logger) *HADiscoveryActor {
	act := &HADiscoveryActor{
		config:    config,
		devices:   devices,
		mqttActor: mqttActor,
		behavior:  actor.NewBehavior(),
		stash:     &actorutil.Stash{},
		logger:    actorutil.ActorLogger(domain.ACTOR_ID_HA_DISCOVERY, logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HADiscoveryActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HADiscoveryActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hadiscovery@starting started")
		actorutil.PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, HADISCOVERY_HEALTH_TIMEOUT), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		state.behavior.Become(state.WaitingHealthyReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("hadiscovery@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) WaitingHealthyReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthResponse:
		state.logger.Debug("hadiscovery@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		if !msg.Healthy {
			panic(ErrMQTTNotHealthy)
		}
		sensors, lights, buttons := state.discoveryComponents()
		state.logger.Info("publishing discovery", zap.Int("frames", len(state.devices)),
			zap.Int("sensors", len(sensors)), zap.Int("lights", len(lights)), zap.Int("buttons", len(buttons)))
		ctx.Send(state.mqttActor, domain.PublishDiscoveryRequest{
			Sensors: sensors,
			Lights:  lights,
			Buttons: buttons,
		})
		state.behavior.Become(state.Done)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("hadiscovery@healthcheck: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HADiscoveryActor) Done(ctx actor.Context) {
	switch ctx.Message().(type) {
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HA_DISCOVERY,
			Healthy: true,
			State:   "done",
		})
	}
}

func (state *HADiscoveryActor) discoveryComponents() ([]domain.GenericSensor, []domain.GenericLight, []domain.GenericButton) {
	var sensors []domain.GenericSensor
	var lights []domain.GenericLight
	var buttons []domain.GenericButton

	bridgeDevice := domain.BridgeDevice(state.config.MQTT.BaseTopic)
	sensors = append(sensors, domain.BridgeSensors(bridgeDevice)...)

	for _, frame := range state.devices {
		frameDevice := domain.FrameHADevice(frame)
		frameDevice.ViaDevice = bridgeDevice.Id
		// only the first component carries the full device description
		lights = append(lights, domain.FrameLights(frameDevice)...)
		idDevice := domain.IdDevice(frameDevice)
		sensors = append(sensors, domain.FrameSensors(idDevice, frame.TrackIPAddress)...)
		buttons = append(buttons, domain.FrameButtons(idDevice)...)
	}

	return sensors, lights, buttons
}
