package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestFrameControl(tr *frameo.TestTransport) *FrameControl {
	logger := zap.Must(zap.NewDevelopment())
	return NewFrameControl(NewTestFrameController("living", tr, logger), logger)
}

func TestTurnOnWithBrightness(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.State.IsOn = false
	ctrl := newTestFrameControl(tr)

	brightness := uint8(100)
	state, err := ctrl.TurnOn(context.Background(), &brightness)
	require.NoError(err)
	require.True(state.IsOn)
	require.Equal(uint8(100), state.Brightness)
	require.Contains(tr.Commands(), frameo.BrightnessCommand(100))
	require.Contains(tr.Commands(), frameo.CMD_POWER_KEY)
	require.Equal(2, tr.Calls("state"), "refresh before and after")
}

func TestTurnOnWhenAlreadyOn(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	ctrl := newTestFrameControl(tr)

	state, err := ctrl.TurnOn(context.Background(), nil)
	require.NoError(err)
	require.True(state.IsOn)
	require.NotContains(tr.Commands(), frameo.CMD_POWER_KEY)
}

func TestTurnOff(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	ctrl := newTestFrameControl(tr)

	state, err := ctrl.TurnOff(context.Background())
	require.NoError(err)
	require.False(state.IsOn)
	require.Contains(tr.Commands(), frameo.CMD_POWER_KEY)

	// already off: no power key press
	before := len(tr.Commands())
	_, err = ctrl.TurnOff(context.Background())
	require.NoError(err)
	require.Equal(before, len(tr.Commands()))
}

func TestTurnOffWithUnknownStateDoesNotPressPower(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.State.IsOn = false
	tr.StateResults = []frameo.TestStateResult{{Err: fmt.Errorf("%w: is_on", frameo.ErrMissingField)}}
	ctrl := newTestFrameControl(tr)

	state, err := ctrl.TurnOff(context.Background())
	require.NoError(err)
	require.False(state.IsOn)
	require.NotContains(tr.Commands(), frameo.CMD_POWER_KEY)
}

func TestTurnOnWithUnknownStatePressesPower(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.State.IsOn = false
	tr.StateResults = []frameo.TestStateResult{{Err: fmt.Errorf("%w: is_on", frameo.ErrMissingField)}}
	ctrl := newTestFrameControl(tr)

	state, err := ctrl.TurnOn(context.Background(), nil)
	require.NoError(err)
	require.True(state.IsOn)
	require.Contains(tr.Commands(), frameo.CMD_POWER_KEY)
}

func TestPressGestureButtonUsesCurrentResolution(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	ctrl := newTestFrameControl(tr)

	require.NoError(ctrl.PressButton(context.Background(), domain.BUTTON_FRAMEO_NEXT))
	require.Contains(tr.Commands(), "input swipe 500 800 62 800")

	tr.Resolution = frameo.Resolution{Width: 1280, Height: 800}
	require.NoError(ctrl.PressButton(context.Background(), domain.BUTTON_IMMICH_PAUSE))
	require.Contains(tr.Commands(), "input tap 640 400")
}

func TestPressCommandAndWirelessButtons(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	ctrl := newTestFrameControl(tr)

	require.NoError(ctrl.PressButton(context.Background(), domain.BUTTON_START_IMMICH))
	require.Contains(tr.Commands(), frameo.CMD_START_IMMICH)

	require.NoError(ctrl.PressButton(context.Background(), domain.BUTTON_START_WIRELESS))
	require.Equal(1, tr.Calls("tcpip"))

	err := ctrl.PressButton(context.Background(), "self_destruct")
	require.ErrorIs(err, domain.ErrUnknownButton)
}

func TestRunCommandReturnsOutput(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.ShellResults = []frameo.TestShellResult{{Output: "Android 11"}}
	ctrl := newTestFrameControl(tr)

	out, err := ctrl.RunCommand(context.Background(), "getprop ro.build.version.release")
	require.NoError(err)
	require.Equal("Android 11", out)
}
