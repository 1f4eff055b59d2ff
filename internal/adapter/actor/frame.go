package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/port"
	"github.com/berfenger/frameo2mqtt/internal/core/service"
	"github.com/berfenger/frameo2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const DEFAULT_FRAME_TASK_TIMEOUT = 30 * time.Second

// FrameActor owns the device I/O of one frame. Calls run as background
// tasks, one at a time; requests received meanwhile are stashed.
type FrameActor struct {
	behavior    actor.Behavior
	stash       *actorutil.Stash
	controller  port.DeviceController
	control     *service.FrameControl
	taskTimeout time.Duration
	logger      *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

type frameStarted struct {
	err error
}

func NewFrameActor(controller port.DeviceController, taskTimeout time.Duration, logger *zap.Logger) *FrameActor {
	if taskTimeout <= 0 {
		taskTimeout = DEFAULT_FRAME_TASK_TIMEOUT
	}
	logger = actorutil.ActorLogger(domain.FrameActorId(controller.Device().Id), logger)
	act := &FrameActor{
		controller:  controller,
		control:     service.NewFrameControl(controller, logger),
		behavior:    actor.NewBehavior(),
		stash:       &actorutil.Stash{},
		taskTimeout: taskTimeout,
		logger:      logger,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *FrameActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *FrameActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("frame@starting started")
		actorutil.NewBackgroundTaskNoError(ctx, func(c context.Context) *frameStarted {
			return &frameStarted{err: state.controller.Start(c)}
		}).Recover(func(err error) frameStarted {
			return frameStarted{err: err}
		}).WithTimeout(state.taskTimeout).PipeTo(ctx.Self())
	case frameStarted:
		if msg.err != nil {
			// let the supervisor retry the setup with backoff
			state.logger.Error("frame@starting connect failed", zap.Error(msg.err))
			panic(msg.err)
		}
		state.logger.Info("frame connected", zap.String("target", state.controller.Device().Connection.Target()))
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.healthResponse("starting"))
	case domain.GetSnapshotRequest:
		state.respondSnapshot(ctx, msg)
	case *actor.Restarting, *actor.Stopping, *actor.Stopped:
	default:
		state.logger.Debug("frame@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *FrameActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("frame@default: ActorHealthRequest")
		ctx.Respond(state.healthResponse("idle"))
	case domain.GetSnapshotRequest:
		state.respondSnapshot(ctx, msg)
	case domain.RefreshRequest:
		state.logger.Debug("frame@default: RefreshRequest")
		runFrameTask(state, ctx, msg, func(c context.Context) (*domain.RefreshResponse, error) {
			st, err := state.control.Refresh(c)
			return &domain.RefreshResponse{
				FrameCommandResponseMixIn: state.commandResponse(st, err),
			}, nil
		}, func(err error) domain.RefreshResponse {
			return domain.RefreshResponse{FrameCommandResponseMixIn: state.commandResponse(nil, err)}
		})
	case domain.LightCommandRequest:
		state.logger.Debug("frame@default: LightCommandRequest", zap.Bool("on", msg.On))
		runFrameTask(state, ctx, msg, func(c context.Context) (*domain.LightCommandResponse, error) {
			var st *domain.DeviceState
			var err error
			if msg.On {
				st, err = state.control.TurnOn(c, msg.Brightness)
			} else {
				st, err = state.control.TurnOff(c)
			}
			return &domain.LightCommandResponse{
				FrameCommandResponseMixIn: state.commandResponse(st, err),
			}, nil
		}, func(err error) domain.LightCommandResponse {
			return domain.LightCommandResponse{FrameCommandResponseMixIn: state.commandResponse(nil, err)}
		})
	case domain.ButtonPressRequest:
		state.logger.Debug("frame@default: ButtonPressRequest", zap.String("key", msg.Key))
		runFrameTask(state, ctx, msg, func(c context.Context) (*domain.ButtonPressResponse, error) {
			err := state.control.PressButton(c, msg.Key)
			return &domain.ButtonPressResponse{
				FrameCommandResponseMixIn: state.commandResponse(nil, err),
			}, nil
		}, func(err error) domain.ButtonPressResponse {
			return domain.ButtonPressResponse{FrameCommandResponseMixIn: state.commandResponse(nil, err)}
		})
	case domain.ExecuteCommandRequest:
		state.logger.Debug("frame@default: ExecuteCommandRequest", zap.String("request_id", msg.RequestId))
		runFrameTask(state, ctx, msg, func(c context.Context) (*domain.ExecuteCommandResponse, error) {
			out, err := state.control.RunCommand(c, msg.Command)
			return &domain.ExecuteCommandResponse{
				FrameCommandResponseMixIn: state.commandResponse(nil, err),
				RequestId:                 msg.RequestId,
				Command:                   msg.Command,
				Result:                    out,
			}, nil
		}, func(err error) domain.ExecuteCommandResponse {
			return domain.ExecuteCommandResponse{
				FrameCommandResponseMixIn: state.commandResponse(nil, err),
				RequestId:                 msg.RequestId,
				Command:                   msg.Command,
			}
		})
	case domain.RefreshResolutionRequest:
		state.logger.Debug("frame@default: RefreshResolutionRequest")
		runFrameTask(state, ctx, msg, func(c context.Context) (*domain.RefreshResolutionResponse, error) {
			res := state.controller.RefreshResolution(c)
			return &domain.RefreshResolutionResponse{
				FrameCommandResponseMixIn: state.commandResponse(nil, nil),
				Width:                     res.Width,
				Height:                    res.Height,
			}, nil
		}, func(err error) domain.RefreshResolutionResponse {
			return domain.RefreshResolutionResponse{FrameCommandResponseMixIn: state.commandResponse(nil, err)}
		})
	case *actor.Restarting, *actor.Stopping, *actor.Stopped:
	default:
		state.logger.Debug("frame@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *FrameActor) WaitingFrame(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("frame@waiting backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		actorutil.ReplyTo(ctx, msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthRequest:
		ctx.Respond(state.healthResponse("busy"))
	case domain.GetSnapshotRequest:
		state.respondSnapshot(ctx, msg)
	case *actor.Restarting, *actor.Stopping, *actor.Stopped:
	default:
		state.logger.Debug("frame@waiting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// runFrameTask runs fn off the actor loop and stacks the waiting behavior
// until its result comes back. Timeouts and panics are turned into a
// response through onError.
func runFrameTask[T any](state *FrameActor, ctx actor.Context, req domain.ActorRequest,
	fn func(context.Context) (*T, error), onError func(error) T) {
	sender := actorutil.ForRequest(req).ReplyTo(ctx)
	actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, fn), mapTaskResult[T](sender)).
		Recover(func(err error) backgroundTaskResult {
			state.logger.Warn("frame task failed", zap.Error(err))
			return backgroundTaskResult{
				message: onError(err),
				replyTo: sender,
			}
		}).WithTimeout(state.taskTimeout).PipeTo(ctx.Self())
	state.behavior.BecomeStacked(state.WaitingFrame)
}

// commandResponse attaches the post-command snapshot. Snapshot and Status
// are safe to read from a task goroutine.
func (state *FrameActor) commandResponse(st *domain.DeviceState, err error) domain.FrameCommandResponseMixIn {
	if st == nil {
		st = state.controller.Snapshot()
	}
	return domain.FrameCommandResponseMixIn{
		ActorResponseMixIn: domain.ErrorResponse(err),
		State:              st,
		Status:             state.controller.Status(),
	}
}

func (state *FrameActor) respondSnapshot(ctx actor.Context, req domain.GetSnapshotRequest) {
	actorutil.ReplyTo(ctx, actorutil.ForRequest(req).ReplyTo(ctx), domain.GetSnapshotResponse{
		FrameCommandResponseMixIn: state.commandResponse(nil, nil),
	})
}

func (state *FrameActor) healthResponse(status string) domain.ActorHealthResponse {
	return domain.ActorHealthResponse{
		Id:      domain.FrameActorId(state.controller.Device().Id),
		Healthy: true,
		State:   fmt.Sprintf("%s (%s)", status, state.controller.Status()),
	}
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
