package frameo

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func relayForServer(t *testing.T, handler http.HandlerFunc) *RelayClient {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	host, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	p, err := strconv.Atoi(port)
	require.NoError(t, err)

	logger, _ := zap.NewDevelopment()
	return NewRelayClient(Endpoint{Host: host, Port: uint(p)}, DefaultTimeouts(), logger)
}

func TestRelayConnectSendsConnection(t *testing.T) {

	require := require.New(t)

	var got map[string]any
	client := relayForServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal("/connect", r.URL.Path)
		require.NoError(json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"status":"already_connected"}`))
	})

	status, err := client.Connect(context.Background(), ConnectionConfig{
		Kind:  ConnectionNetwork,
		Host:  "192.168.1.20",
		Port:  5555,
		Relay: &Endpoint{Host: "addon", Port: 5000},
	})
	require.NoError(err)
	require.Equal(StatusAlreadyConnected, status)
	require.True(status.IsConnected())
	require.Equal("Network", got["connection_type"])
	require.Equal("192.168.1.20", got["host"])
	require.Equal("addon", got["addon_host"])
}

func TestRelayServiceUnavailableIsDisconnected(t *testing.T) {

	require := require.New(t)

	client := relayForServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"device offline"}`))
	})

	_, err := client.Shell(context.Background(), "input keyevent 26")
	require.Error(err)
	require.True(IsDeviceDisconnected(err))

	var terr *TransportError
	require.True(errors.As(err, &terr))
	require.Equal(http.StatusServiceUnavailable, terr.StatusCode)
}

func TestRelayServerErrorIsTransportError(t *testing.T) {

	require := require.New(t)

	client := relayForServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetState(context.Background())
	require.Error(err)
	require.False(IsDeviceDisconnected(err))
	require.True(IsTransportError(err))
}

func TestRelayStateRequiresIsOn(t *testing.T) {

	require := require.New(t)

	body := `{"brightness": 80}`
	client := relayForServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	_, err := client.GetState(context.Background())
	require.ErrorIs(err, ErrMissingField)

	body = `{"is_on": true}`
	report, err := client.GetState(context.Background())
	require.NoError(err)
	require.Equal(&StateReport{IsOn: true, Brightness: 0}, report)
}

func TestRelayMalformedBody(t *testing.T) {

	client := relayForServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := client.GetIPAddress(context.Background())
	require.ErrorIs(t, err, ErrMalformedResponse)
}

func TestRelayShellAndIP(t *testing.T) {

	require := require.New(t)

	client := relayForServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/shell":
			w.Write([]byte(`{"result":"Physical size: 1280x800"}`))
		case "/ip":
			require.Equal(http.MethodGet, r.Method)
			w.Write([]byte(`{"ip_address":"10.0.0.7"}`))
		case "/devices/usb":
			w.Write([]byte(`["A1","B2"]`))
		}
	})

	out, err := client.Shell(context.Background(), wmSizeCommand)
	require.NoError(err)
	require.Equal("Physical size: 1280x800", out)

	ip, err := client.GetIPAddress(context.Background())
	require.NoError(err)
	require.Equal("10.0.0.7", ip)

	serials, err := client.ListUSBDevices(context.Background())
	require.NoError(err)
	require.Equal([]string{"A1", "B2"}, serials)
}
