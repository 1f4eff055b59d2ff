package service

import (
	"context"
	"fmt"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/port"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"go.uber.org/zap"
)

// FrameControl maps light, button and command actions onto a frame.
// Every state-changing action refreshes before and after running.
type FrameControl struct {
	controller port.DeviceController
	logger     *zap.Logger
}

func NewFrameControl(controller port.DeviceController, logger *zap.Logger) *FrameControl {
	return &FrameControl{
		controller: controller,
		logger:     logger.With(zap.String("device", controller.Device().Id)),
	}
}

func (f *FrameControl) Controller() port.DeviceController {
	return f.controller
}

func (f *FrameControl) TurnOn(ctx context.Context, brightness *uint8) (*domain.DeviceState, error) {
	current := f.preActionState(ctx)

	if brightness != nil {
		if _, err := f.controller.Execute(ctx, frameo.BrightnessCommand(*brightness)); err != nil {
			return nil, err
		}
	}
	if current == nil || !current.IsOn {
		if _, err := f.controller.Execute(ctx, frameo.CMD_POWER_KEY); err != nil {
			return nil, err
		}
	}
	return f.postActionState(ctx), nil
}

func (f *FrameControl) TurnOff(ctx context.Context) (*domain.DeviceState, error) {
	current := f.preActionState(ctx)

	if current != nil && current.IsOn {
		if _, err := f.controller.Execute(ctx, frameo.CMD_POWER_KEY); err != nil {
			return nil, err
		}
	}
	return f.postActionState(ctx), nil
}

func (f *FrameControl) PressButton(ctx context.Context, key string) error {
	button, ok := domain.FindButton(key)
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrUnknownButton, key)
	}

	switch {
	case button.Wireless:
		return f.controller.EnableWireless(ctx)
	case button.IsGesture():
		// orientation may have changed since the last detection
		res := f.controller.RefreshResolution(ctx)
		cmd, err := frameo.GestureCommand(button.Gesture, res)
		if err != nil {
			return err
		}
		_, err = f.controller.Execute(ctx, cmd)
		return err
	default:
		_, err := f.controller.Execute(ctx, button.Command)
		return err
	}
}

func (f *FrameControl) RunCommand(ctx context.Context, command string) (string, error) {
	f.logger.Info("run adb command", zap.String("command", command))
	return f.controller.Execute(ctx, command)
}

func (f *FrameControl) Refresh(ctx context.Context) (*domain.DeviceState, error) {
	return f.controller.Refresh(ctx)
}

func (f *FrameControl) preActionState(ctx context.Context) *domain.DeviceState {
	state, err := f.controller.Refresh(ctx)
	if err != nil {
		f.logger.Warn("refresh before action failed", zap.Error(err))
		return f.controller.Snapshot()
	}
	return state
}

func (f *FrameControl) postActionState(ctx context.Context) *domain.DeviceState {
	state, err := f.controller.Refresh(ctx)
	if err != nil {
		f.logger.Warn("refresh after action failed", zap.Error(err))
		return f.controller.Snapshot()
	}
	return state
}
