package actor

import (
	"fmt"
	"strings"
	"time"

	adactor "github.com/berfenger/frameo2mqtt/internal/adapter/actor"
	"github.com/berfenger/frameo2mqtt/internal/config"
	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/port"
	"github.com/berfenger/frameo2mqtt/internal/core/service"
	. "github.com/berfenger/frameo2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

const (
	HEALTH_CHECK_TIMEOUT = 1 * time.Second
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type FrameActorProvider func(port.DeviceController) *adactor.FrameActor

type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	registry           *service.Registry
	mqttActor          *actor.PID
	frameActors        map[string]*actor.PID
	stateActors        map[string]*actor.PID
	frameActorProvider FrameActorProvider
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	expected  int
	received  int
	unhealthy []string
	respondTo *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, registry *service.Registry, frameActorProvider FrameActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:             config,
		behavior:           actor.NewBehavior(),
		stash:              &Stash{},
		logger:             ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:        &eventstream.EventStream{},
		registry:           registry,
		frameActors:        map[string]*actor.PID{},
		stateActors:        map[string]*actor.PID{},
		frameActorProvider: frameActorProvider,
		mqttActorProvider:  mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start frame and state children of every device
		for _, controller := range state.registry.All() {
			id := controller.Device().Id
			framePID, err := state.startFrameActor(ctx, controller)
			if err != nil {
				panic(err)
			}
			state.frameActors[id] = framePID

			statePID, err := state.startStateActor(ctx, controller.Device(), framePID)
			if err != nil {
				panic(err)
			}
			state.stateActors[id] = statePID
		}

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		// start schedules
		if len(state.config.Schedules) > 0 {
			_, err := state.startScheduleActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset(state.healthCheckTargets(), ctx.Sender())
		state.requestHealth(ctx, domain.ACTOR_ID_MQTT, state.mqttActor)
		for _, id := range state.registry.Ids() {
			state.requestHealth(ctx, domain.FrameActorId(id), state.frameActors[id])
			state.requestHealth(ctx, domain.StateActorId(id), state.stateActors[id])
		}

		ctx.SetReceiveTimeout(HEALTH_CHECK_TIMEOUT)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case adactor.ParsedCommand:
		// redirect parsedCommand to the state actor of the frame
		if msg.Command == nil {
			return
		}
		state.logger.Debug("master@default parsedCommand", zap.String("device", msg.Command.DeviceId), zap.String("command", msg.Command.Command))
		cmd, err := ParsedMQTTCommandToCommand(*msg.Command)
		if err != nil {
			state.logger.Warn("master@default rejected command", zap.String("device", msg.Command.DeviceId), zap.Error(err))
			return
		}
		statePID, ok := state.stateActors[cmd.DeviceId()]
		if !ok {
			state.logger.Warn("master@default command for unknown device", zap.String("device", cmd.DeviceId()))
			return
		}
		ctx.Send(statePID, cmd)
	case domain.FrameCommandRequest:
		statePID, ok := state.stateActors[msg.DeviceId()]
		if !ok {
			state.logger.Debug("master@default request for unknown device", zap.String("device", msg.DeviceId()))
			ForRequest(msg).Respond(ctx, domain.FrameCommandErrorResponse(msg,
				fmt.Errorf("%w: %s", domain.ErrUnknownDevice, msg.DeviceId())))
			return
		}
		ctx.Forward(statePID)
	case *actor.Terminated:
		state.logger.Warn("master@default child terminated", zap.String("who", msg.Who.Id))
	case *actor.ReceiveTimeout:
		ctx.CancelReceiveTimeout()
	default:
		state.logger.Debug("master@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		ctx.CancelReceiveTimeout()
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy), zap.String("state", msg.State))
		state.currentHealthCheck.record(msg)
		if state.currentHealthCheck.allReceived() {
			ctx.CancelReceiveTimeout()
			state.currentHealthCheck.respond(ctx)
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) requestHealth(ctx actor.Context, id string, pid *actor.PID) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(pid, domain.ActorHealthRequest{}, HEALTH_CHECK_TIMEOUT/2), func(err error) any {
		return domain.ActorHealthResponse{
			Id:      id,
			Healthy: false,
			State:   err.Error(),
		}
	})
}

func (state *MasterOfPuppetsActor) healthCheckTargets() int {
	return 1 + 2*state.registry.Len()
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
}

func (state *MasterOfPuppetsActor) startFrameActor(ctx actor.Context, controller port.DeviceController) (*actor.PID, error) {

	// a frame that cannot connect keeps retrying with backoff
	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	frameProps := actor.PropsFromProducer(func() actor.Actor {
		return state.frameActorProvider(controller)
	}, actor.WithSupervisor(supervisor))
	return ctx.SpawnNamed(frameProps, domain.FrameActorId(controller.Device().Id))
}

func (state *MasterOfPuppetsActor) startStateActor(ctx actor.Context, device domain.FrameDevice, framePID *actor.PID) (*actor.PID, error) {

	deviceConfig, _ := state.config.Device(device.Id)
	stateProps := actor.PropsFromProducer(func() actor.Actor {
		return NewFrameStateActor(device, framePID, state.eventStream, deviceConfig.PollInterval(), state.config.FrameTaskTimeout(), state.logger)
	}, actor.WithSupervisor(state.restartSupervisor()))
	return ctx.SpawnNamed(stateProps, domain.StateActorId(device.Id))
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.registry.Devices(), state.mqttActor, state.logger)
	}, actor.WithSupervisor(state.restartSupervisor()))
	return ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
}

func (state *MasterOfPuppetsActor) startScheduleActor(ctx actor.Context) (*actor.PID, error) {

	scheduleProps := actor.PropsFromProducer(func() actor.Actor {
		return NewScheduleActor(state.config.Schedules, time.Local, state.logger)
	}, actor.WithSupervisor(state.restartSupervisor()))
	return ctx.SpawnNamed(scheduleProps, domain.ACTOR_ID_SCHEDULE)
}

func (state *MasterOfPuppetsActor) restartSupervisor() actor.SupervisorStrategy {
	decider := func(reason interface{}) actor.Directive {
		state.logger.Warn("handling failure for child", zap.Any("reason", reason))
		return actor.RestartDirective
	}
	return actor.NewOneForOneStrategy(1, 10*time.Second, decider)
}

func (state *healthCheckResult) reset(expected int, respondTo *actor.PID) {
	state.expected = expected
	state.received = 0
	state.unhealthy = nil
	state.respondTo = respondTo
}

func (state *healthCheckResult) record(resp domain.ActorHealthResponse) {
	state.received++
	if !resp.Healthy {
		state.unhealthy = append(state.unhealthy, resp.Id)
	}
}

func (state *healthCheckResult) allReceived() bool {
	return state.received >= state.expected
}

func (state *healthCheckResult) allHealthy() bool {
	return state.allReceived() && len(state.unhealthy) == 0
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
	}
	if len(state.unhealthy) > 0 {
		resp.State = "unhealthy: " + strings.Join(state.unhealthy, ", ")
	} else if !state.allReceived() {
		resp.State = fmt.Sprintf("%d of %d actors responded", state.received, state.expected)
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
