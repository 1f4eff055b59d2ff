package actor

import (
	"fmt"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/events"
	. "github.com/berfenger/frameo2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

const (
	FRAME_REQUEST_TIMEOUT_MARGIN = 5 * time.Second
)

// FrameStateActor owns the published state of one frame. Every request to
// the frame goes through it, one at a time, so that each result can be
// turned into state events.
type FrameStateActor struct {
	ActorWithStates
	scheduler      *scheduler.TimerScheduler
	cancelPoll     scheduler.CancelFunc
	stash          *Stash
	device         domain.FrameDevice
	frameActor     *actor.PID
	eventStream    *eventstream.EventStream
	pollInterval   time.Duration
	requestTimeout time.Duration
	status         domain.ConnectionStatus
	statusKnown    bool

	logger *zap.Logger
}

type stateTick struct {
}

func NewFrameStateActor(device domain.FrameDevice, frameActor *actor.PID, eventStream *eventstream.EventStream,
	pollInterval time.Duration, frameTaskTimeout time.Duration, logger *zap.Logger) *FrameStateActor {
	actorLogger := ActorLogger(domain.StateActorId(device.Id), logger)
	act := &FrameStateActor{
		ActorWithStates: NewActorWithStates(actorLogger),
		device:          device,
		frameActor:      frameActor,
		eventStream:     eventStream,
		pollInterval:    pollInterval,
		requestTimeout:  frameTaskTimeout + FRAME_REQUEST_TIMEOUT_MARGIN,
		stash:           &Stash{},
		logger:          actorLogger,
	}
	act.Become(FSStartingState{
		actor: act,
	})
	return act
}

func (state *FrameStateActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type FSStartingState struct {
	ActorState
	actor *FrameStateActor
}

func (state FSStartingState) Name() string {
	return "starting"
}

func (state FSStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("state@starting started")
		state.actor.scheduler = scheduler.NewTimerScheduler(ctx)
		// first refresh right away, then every poll interval
		ctx.Send(ctx.Self(), stateTick{})
		state.actor.Become(FSIdleState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("state@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type FSIdleState struct {
	ActorState
	actor *FrameStateActor
}

func (state FSIdleState) Name() string {
	return "idle"
}

func (state FSIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("state@idle: ActorHealthRequest")
		ctx.Respond(state.actor.healthResponse(state.actor.StateName()))
	case stateTick:
		state.actor.logger.Debug("state@idle: tick")
		state.actor.schedulePoll(ctx)
		state.actor.Become(FSBusyState{
			actor: state.actor,
		}.OnEnterAction(ctx, domain.RefreshRequest{FrameCommandRequestMixIn: domain.ForDevice(state.actor.device.Id)}, nil))
	case domain.GetSnapshotRequest:
		ctx.Forward(state.actor.frameActor)
	case domain.FrameCommandRequest:
		state.actor.logger.Debug("state@idle: request", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.Become(FSBusyState{
			actor: state.actor,
		}.OnEnterAction(ctx, msg, ForRequest(msg).ReplyTo(ctx)))
	case *actor.Stopping:
		state.actor.stop()
	default:
		state.actor.logger.Debug("state@idle: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Busy state: one request in flight to the frame actor

type FSBusyState struct {
	ActorState
	actor   *FrameStateActor
	replyTo *actor.PID
}

func (state FSBusyState) Name() string {
	return "busy"
}

func (state FSBusyState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("state@busy: ActorHealthRequest")
		ctx.Respond(state.actor.healthResponse(state.actor.StateName()))
	case stateTick:
		// a request is already in flight, its result refreshes the state
		state.actor.logger.Debug("state@busy: skip tick")
		state.actor.schedulePoll(ctx)
	case domain.GetSnapshotRequest:
		ctx.Forward(state.actor.frameActor)
	case domain.FrameCommandResponse:
		if msg.HasResponseError() {
			state.actor.logger.Warn("state@busy: request failed", zap.String("type", fmt.Sprintf("%T", msg)), zap.Error(msg.GetResponseError()))
		} else {
			state.actor.logger.Debug("state@busy: response", zap.String("type", fmt.Sprintf("%T", msg)))
		}
		state.actor.publishResponse(msg)
		ReplyTo(ctx, state.replyTo, msg)
		state.actor.Become(FSIdleState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.actor.stop()
	case *actor.Restarting, *actor.Stopped:
	default:
		state.actor.logger.Debug("state@busy: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state FSBusyState) OnEnterAction(ctx actor.Context, req domain.FrameCommandRequest, replyTo *actor.PID) FSBusyState {
	state.replyTo = replyTo
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.frameActor, domain.DetachReplyTo(req), state.actor.requestTimeout),
		func(err error) any {
			return domain.FrameCommandErrorResponse(req, err)
		})
	return state
}

// Other actor function helpers

func (state *FrameStateActor) schedulePoll(ctx actor.Context) {
	if state.pollInterval <= 0 {
		return
	}
	state.cancelPoll = state.scheduler.RequestOnce(state.pollInterval, ctx.Self(), stateTick{})
}

func (state *FrameStateActor) stop() {
	if state.cancelPoll != nil {
		state.cancelPoll()
		state.cancelPoll = nil
	}
}

// publishResponse maps a frame response to events: a full snapshot after
// a successful refresh, connection changes otherwise.
func (state *FrameStateActor) publishResponse(resp domain.FrameCommandResponse) {
	if r, ok := resp.(domain.ExecuteCommandResponse); ok {
		state.eventStream.Publish(events.CommandResultToUpdateEvent(state.device.Id, r))
	}
	if st := resp.DeviceState(); st != nil && !resp.HasResponseError() && refreshesState(resp) {
		for _, ev := range events.DeviceStateToUpdateEvents(state.device.Id, st, state.device.TrackIPAddress) {
			state.eventStream.Publish(ev)
		}
		state.status = domain.Connected
		state.statusKnown = true
		return
	}
	state.updateStatus(resp.DeviceStatus())
}

func (state *FrameStateActor) updateStatus(status domain.ConnectionStatus) {
	if state.statusKnown && state.status == status {
		return
	}
	state.logger.Info("frame connection status", zap.Stringer("status", status))
	state.status = status
	state.statusKnown = true
	for _, ev := range events.ConnectionStatusUpdateEvents(state.device.Id, status) {
		state.eventStream.Publish(ev)
	}
}

func (state *FrameStateActor) healthResponse(name string) domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.StateActorId(state.device.Id),
		Healthy: true,
		State:   name,
	}
}

func refreshesState(resp domain.FrameCommandResponse) bool {
	switch resp.(type) {
	case domain.RefreshResponse, domain.LightCommandResponse:
		return true
	}
	return false
}
