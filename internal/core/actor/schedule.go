package actor

import (
	"context"
	"fmt"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/config"
	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/util/actorutil"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

// ScheduleActor fires the configured cron schedules. Each firing becomes a
// frame command sent to the parent, which routes it like any other request.
type ScheduleActor struct {
	schedules []config.ScheduleConfig
	scheduler quartz.Scheduler
	cancel    context.CancelFunc
	location  *time.Location

	logger *zap.Logger
}

type scheduleFired struct {
	index int
}

func NewScheduleActor(schedules []config.ScheduleConfig, location *time.Location, logger *zap.Logger) *ScheduleActor {
	if location == nil {
		location = time.Local
	}
	return &ScheduleActor{
		schedules: schedules,
		location:  location,
		logger:    actorutil.ActorLogger(domain.ACTOR_ID_SCHEDULE, logger),
	}
}

func (state *ScheduleActor) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("schedule@default started")
		if err := state.start(ctx); err != nil {
			state.logger.Error("schedule@default start failed", zap.Error(err))
			panic(err)
		}
	case *actor.Stopping, *actor.Restarting:
		state.stop()
	case scheduleFired:
		s := state.schedules[msg.index]
		req, err := ScheduleRequest(s)
		if err != nil {
			state.logger.Error("schedule@default invalid schedule", zap.Int("index", msg.index), zap.Error(err))
			return
		}
		state.logger.Info("schedule fired", zap.String("device", s.Device), zap.String("action", s.Action), zap.String("cron", s.Cron))
		ctx.Request(ctx.Parent(), req)
	case domain.FrameCommandResponse:
		if msg.HasResponseError() {
			state.logger.Warn("scheduled command failed", zap.String("type", fmt.Sprintf("%T", msg)), zap.Error(msg.GetResponseError()))
		} else {
			state.logger.Debug("scheduled command done", zap.String("type", fmt.Sprintf("%T", msg)))
		}
	case domain.ActorHealthRequest:
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_SCHEDULE,
			Healthy: state.scheduler != nil && state.scheduler.IsStarted(),
			State:   fmt.Sprintf("%d schedules", len(state.schedules)),
		})
	default:
		state.logger.Debug("schedule@default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *ScheduleActor) start(ctx actor.Context) error {
	sched, err := quartz.NewStdScheduler()
	if err != nil {
		return err
	}
	schedCtx, cancel := context.WithCancel(context.Background())
	sched.Start(schedCtx)
	state.scheduler = sched
	state.cancel = cancel

	root := ctx.ActorSystem().Root
	self := ctx.Self()
	for i, s := range state.schedules {
		trigger, err := quartz.NewCronTriggerWithLoc(s.Cron, state.location)
		if err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
		index := i
		fired := job.NewFunctionJob(func(_ context.Context) (bool, error) {
			root.Send(self, scheduleFired{index: index})
			return true, nil
		})
		key := quartz.NewJobKey(fmt.Sprintf("%s_%d_%s", s.Device, i, s.Action))
		if err := sched.ScheduleJob(quartz.NewJobDetail(fired, key), trigger); err != nil {
			return fmt.Errorf("schedules[%d]: %w", i, err)
		}
		state.logger.Debug("scheduled", zap.String("key", key.String()), zap.String("cron", s.Cron))
	}
	return nil
}

func (state *ScheduleActor) stop() {
	if state.scheduler != nil {
		state.scheduler.Stop()
		state.scheduler = nil
	}
	if state.cancel != nil {
		state.cancel()
		state.cancel = nil
	}
}

// ScheduleRequest builds the frame command issued when a schedule fires.
func ScheduleRequest(s config.ScheduleConfig) (domain.FrameCommandRequest, error) {
	mixIn := domain.ForDevice(s.Device)
	switch s.Action {
	case config.SCHEDULE_ACTION_TURN_ON:
		return domain.LightCommandRequest{FrameCommandRequestMixIn: mixIn, On: true, Brightness: s.Brightness}, nil
	case config.SCHEDULE_ACTION_TURN_OFF:
		return domain.LightCommandRequest{FrameCommandRequestMixIn: mixIn, On: false}, nil
	case config.SCHEDULE_ACTION_BUTTON:
		if _, ok := domain.FindButton(s.Button); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownButton, s.Button)
		}
		return domain.ButtonPressRequest{FrameCommandRequestMixIn: mixIn, Key: s.Button}, nil
	case config.SCHEDULE_ACTION_COMMAND:
		return domain.ExecuteCommandRequest{FrameCommandRequestMixIn: mixIn, RequestId: uuid.NewString(), Command: s.Command}, nil
	case config.SCHEDULE_ACTION_REFRESH:
		return domain.RefreshRequest{FrameCommandRequestMixIn: mixIn}, nil
	}
	return nil, fmt.Errorf("unknown schedule action %q", s.Action)
}
