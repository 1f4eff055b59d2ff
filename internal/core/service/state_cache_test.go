package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCache(tr *frameo.TestTransport, trackIP bool) (*StateCache, *ConnectionSupervisor) {
	logger := zap.Must(zap.NewDevelopment())
	device := testFrameDevice("test", trackIP)
	sup := NewConnectionSupervisor(device.Connection, tr, logger)
	return NewStateCache(device, tr, sup, logger), sup
}

func countCommands(tr *frameo.TestTransport, prefix string) int {
	n := 0
	for _, c := range tr.Commands() {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func TestRefreshReturnsSnapshot(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	cache, _ := newTestCache(tr, true)

	state, err := cache.Refresh(context.Background())
	require.NoError(err)
	require.Equal(domain.DeviceState{
		IsOn:         true,
		Brightness:   128,
		ScreenWidth:  800,
		ScreenHeight: 1280,
		IPAddress:    "192.168.1.50",
	}, *state)
	require.Equal(state, cache.Snapshot())

	again, err := cache.Refresh(context.Background())
	require.NoError(err)
	require.Equal(*state, *again, "refresh is idempotent")
}

func TestRefreshDetectsResolutionOnce(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	cache, _ := newTestCache(tr, false)

	_, err := cache.Refresh(context.Background())
	require.NoError(err)

	// rotating the frame is not picked up until a forced detection
	tr.Resolution = frameo.Resolution{Width: 1280, Height: 800}
	state, err := cache.Refresh(context.Background())
	require.NoError(err)
	require.Equal(800, state.ScreenWidth)
	require.Equal(1, countCommands(tr, "dumpsys display"))

	res := cache.RefreshResolution(context.Background())
	require.Equal(frameo.Resolution{Width: 1280, Height: 800}, res)
	state, err = cache.Refresh(context.Background())
	require.NoError(err)
	require.Equal(1280, state.ScreenWidth)
}

func TestRefreshFallsBackToConfiguredResolution(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.ShellResults = []frameo.TestShellResult{{Err: frameo.TestTransportError("/shell")}}
	cache, _ := newTestCache(tr, false)

	state, err := cache.Refresh(context.Background())
	require.NoError(err)
	require.Equal(1280, state.ScreenWidth)
	require.Equal(800, state.ScreenHeight)

	// detection is retried on the next refresh since it never succeeded
	state, err = cache.Refresh(context.Background())
	require.NoError(err)
	require.Equal(800, state.ScreenWidth)
}

func TestRefreshRecoversFromDisconnection(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.StateResults = []frameo.TestStateResult{{Err: frameo.TestDisconnectedError("/state")}}
	cache, sup := newTestCache(tr, false)

	state, err := cache.Refresh(context.Background())
	require.NoError(err)
	require.True(state.IsOn)
	require.Equal(1, tr.Calls("connect"), "exactly one reconnect")
	require.Equal(2, tr.Calls("state"), "exactly one retry")
	require.Equal(domain.Connected, sup.Status())
}

func TestRefreshFailsWhenReconnectFails(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	cache, sup := newTestCache(tr, false)

	previous, err := cache.Refresh(context.Background())
	require.NoError(err)

	tr.StateResults = []frameo.TestStateResult{{Err: frameo.TestDisconnectedError("/state")}}
	tr.ConnectResults = []frameo.TestConnectResult{
		{Status: frameo.StatusError},
		{Status: frameo.StatusError},
		{Status: frameo.StatusError},
	}

	_, err = cache.Refresh(context.Background())
	require.Error(err)
	require.True(domain.IsUpdateFailed(err))
	require.True(frameo.IsDeviceDisconnected(err))
	require.Equal(domain.Disconnected, sup.Status())
	require.Equal(previous, cache.Snapshot(), "failed refresh keeps the previous snapshot")

	// while disconnected, refresh fails before touching the device
	tr.ConnectResults = []frameo.TestConnectResult{
		{Status: frameo.StatusError},
		{Status: frameo.StatusError},
		{Status: frameo.StatusError},
	}
	calls := tr.Calls("state")
	_, err = cache.Refresh(context.Background())
	require.ErrorIs(err, domain.ErrDeviceNotConnected)
	require.Equal(calls, tr.Calls("state"))
}

func TestRefreshMissingIsOnIsUpdateFailed(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.StateResults = []frameo.TestStateResult{{Err: fmt.Errorf("%w: is_on", frameo.ErrMissingField)}}
	cache, sup := newTestCache(tr, false)

	_, err := cache.Refresh(context.Background())
	require.True(domain.IsUpdateFailed(err))
	require.ErrorIs(err, frameo.ErrMissingField)
	require.Nil(cache.Snapshot())
	require.Equal(domain.Connected, sup.Status(), "request errors keep the link up")
	require.Equal(0, tr.Calls("connect"))
}

func TestRefreshIPFailureDegradesToUnknown(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.IPResults = []frameo.TestIPResult{{Err: errors.New("no route")}}
	cache, _ := newTestCache(tr, true)

	state, err := cache.Refresh(context.Background())
	require.NoError(err)
	require.Equal(domain.IP_ADDRESS_UNKNOWN, state.IPAddress)
}
