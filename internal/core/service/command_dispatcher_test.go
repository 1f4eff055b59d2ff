package service

import (
	"context"
	"testing"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDispatcher(tr *frameo.TestTransport) (*CommandDispatcher, *ConnectionSupervisor) {
	logger := zap.Must(zap.NewDevelopment())
	sup := NewConnectionSupervisor(testFrameDevice("test", false).Connection, tr, logger)
	return NewCommandDispatcher(tr, sup, logger), sup
}

func TestExecuteWhileDisconnectedNeverCallsShell(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.ConnectResults = []frameo.TestConnectResult{
		{Status: frameo.StatusError},
		{Status: frameo.StatusError},
		{Status: frameo.StatusError},
	}
	dispatcher, sup := newTestDispatcher(tr)
	sup.MarkDisconnected()

	_, err := dispatcher.Execute(context.Background(), frameo.CMD_POWER_KEY)
	require.ErrorIs(err, domain.ErrDeviceNotConnected)
	require.Equal(0, tr.Calls("shell"))
}

func TestExecuteRetriesOnceAfterReconnect(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.ShellResults = []frameo.TestShellResult{
		{Err: frameo.TestDisconnectedError("/shell")},
		{Output: "ok"},
	}
	dispatcher, sup := newTestDispatcher(tr)

	out, err := dispatcher.Execute(context.Background(), "echo ok")
	require.NoError(err)
	require.Equal("ok", out)
	require.Equal(1, tr.Calls("connect"))
	require.Equal(2, tr.Calls("shell"))
	require.Equal(domain.Connected, sup.Status())
}

func TestExecuteReconnectFailureReturnsDisconnection(t *testing.T) {

	require := require.New(t)

	tr := frameo.CreateTestTransport()
	tr.ShellResults = []frameo.TestShellResult{{Err: frameo.TestDisconnectedError("/shell")}}
	tr.ConnectResults = []frameo.TestConnectResult{{Status: frameo.StatusError}}
	dispatcher, sup := newTestDispatcher(tr)

	_, err := dispatcher.Execute(context.Background(), "echo ok")
	require.True(frameo.IsDeviceDisconnected(err))
	require.Equal(1, tr.Calls("connect"), "a single reconnect")
	require.Equal(1, tr.Calls("shell"))
	require.Equal(domain.Disconnected, sup.Status())
}

func TestExecuteOtherErrorsPropagate(t *testing.T) {

	require := require.New(t)

	cause := frameo.TestTransportError("/shell")
	tr := frameo.CreateTestTransport()
	tr.ShellResults = []frameo.TestShellResult{{Err: cause}}
	dispatcher, sup := newTestDispatcher(tr)

	_, err := dispatcher.Execute(context.Background(), "echo ok")
	require.Equal(cause, err)
	require.Equal(0, tr.Calls("connect"))
	require.Equal(domain.Connected, sup.Status())
}
