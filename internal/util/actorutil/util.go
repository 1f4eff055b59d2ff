package actorutil

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/mqtt"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"go.uber.org/zap"
)

func PipeToSelfWithRecover(ctx actor.Context, future *actor.Future, mapFn func(error) any) {
	ctx.ReenterAfter(future, func(msg any, err error) {
		if err != nil {
			ctx.Send(ctx.Self(), mapFn(err))
			return
		}
		ctx.Send(ctx.Self(), msg)
	})
}

func NewActorSystemWithZapLogger(logger *zap.Logger) *actor.ActorSystem {
	stdOutLogger := zap.NewStdLog(logger)

	var slogLevel slog.Level = slog.LevelInfo

	switch logger.Level() {
	case zap.DebugLevel:
		slogLevel = slog.LevelDebug
	case zap.InfoLevel:
		slogLevel = slog.LevelInfo
	case zap.WarnLevel:
		slogLevel = slog.LevelWarn
	case zap.ErrorLevel, zap.PanicLevel, zap.FatalLevel:
		slogLevel = slog.LevelError
	}

	return actor.NewActorSystem(actor.WithLoggerFactory(func(system *actor.ActorSystem) *slog.Logger {
		return slog.New(tint.NewHandler(stdOutLogger.Writer(), &tint.Options{
			Level:      slogLevel,
			TimeFormat: time.DateTime,
		}))
	}))
}

func ActorLogger(actorName string, logger *zap.Logger) *zap.Logger {
	return logger.With(zap.String("actor", actorName))
}

// ParsedMQTTCommandToCommand turns a frame topic command into the request
// routed to that frame's state actor.
func ParsedMQTTCommandToCommand(cmd mqtt.ParsedMQTTCommand) (domain.FrameCommandRequest, error) {
	switch cmd.Command {
	case mqtt.COMMAND_LIGHT:
		on, brightness, err := mqtt.ParseLightPayload([]byte(cmd.Payload))
		if err != nil {
			return nil, err
		}
		return domain.LightCommandRequest{
			FrameCommandRequestMixIn: domain.ForDevice(cmd.DeviceId),
			On:                       on,
			Brightness:               brightness,
		}, nil
	case mqtt.COMMAND_BUTTON:
		if _, ok := domain.FindButton(cmd.Param); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownButton, cmd.Param)
		}
		return domain.ButtonPressRequest{
			FrameCommandRequestMixIn: domain.ForDevice(cmd.DeviceId),
			Key:                      cmd.Param,
		}, nil
	case mqtt.COMMAND_ADB:
		return domain.ExecuteCommandRequest{
			FrameCommandRequestMixIn: domain.ForDevice(cmd.DeviceId),
			RequestId:                uuid.NewString(),
			Command:                  cmd.Payload,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", mqtt.ErrInvalidCommand, cmd.Command)
}
