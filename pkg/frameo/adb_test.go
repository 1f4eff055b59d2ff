package frameo

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type scriptedRunner struct {
	outputs map[string]string
	errs    map[string]error
	calls   [][]string
}

func (r *scriptedRunner) run(ctx context.Context, name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, args)
	key := strings.Join(args, " ")
	for prefix, out := range r.outputs {
		if strings.HasPrefix(key, prefix) {
			return []byte(out), r.errs[prefix]
		}
	}
	return nil, nil
}

func adbForTest(conn ConnectionConfig, runner *scriptedRunner) *ADBClient {
	logger, _ := zap.NewDevelopment()
	return NewADBClientWithRunner(conn, DefaultTimeouts(), runner.run, logger)
}

func TestADBConnectNetwork(t *testing.T) {

	require := require.New(t)

	conn := ConnectionConfig{Kind: ConnectionNetwork, Host: "10.0.0.9", Port: 5555}
	runner := &scriptedRunner{outputs: map[string]string{
		"connect": "already connected to 10.0.0.9:5555\n",
	}}
	status, err := adbForTest(conn, runner).Connect(context.Background(), conn)
	require.NoError(err)
	require.Equal(StatusAlreadyConnected, status)
	require.Equal([]string{"connect", "10.0.0.9:5555"}, runner.calls[0])

	runner.outputs["connect"] = "failed to connect to '10.0.0.9:5555': Connection refused\n"
	status, err = adbForTest(conn, runner).Connect(context.Background(), conn)
	require.NoError(err)
	require.Equal(StatusError, status)
}

func TestADBConnectUSB(t *testing.T) {

	require := require.New(t)

	conn := ConnectionConfig{Kind: ConnectionUSB, Serial: "FRAMEO0001"}
	runner := &scriptedRunner{outputs: map[string]string{
		"-s FRAMEO0001 wait-for-device": "device\n",
	}}
	status, err := adbForTest(conn, runner).Connect(context.Background(), conn)
	require.NoError(err)
	require.Equal(StatusConnected, status)
}

func TestADBOfflineIsDisconnected(t *testing.T) {

	require := require.New(t)

	conn := ConnectionConfig{Kind: ConnectionUSB, Serial: "FRAMEO0001"}
	runner := &scriptedRunner{
		outputs: map[string]string{"-s FRAMEO0001 shell": "error: device offline\n"},
		errs:    map[string]error{"-s FRAMEO0001 shell": errors.New("exit status 1")},
	}
	_, err := adbForTest(conn, runner).Shell(context.Background(), CMD_POWER_KEY)
	require.Error(err)
	require.True(IsDeviceDisconnected(err))
}

func TestADBShellFailureIsTransportError(t *testing.T) {

	require := require.New(t)

	conn := ConnectionConfig{Kind: ConnectionUSB, Serial: "FRAMEO0001"}
	runner := &scriptedRunner{
		outputs: map[string]string{"-s FRAMEO0001 shell": "/system/bin/sh: foo: inaccessible\n"},
		errs:    map[string]error{"-s FRAMEO0001 shell": errors.New("exit status 127")},
	}
	_, err := adbForTest(conn, runner).Shell(context.Background(), "foo")
	require.Error(err)
	require.False(IsDeviceDisconnected(err))
	require.True(IsTransportError(err))
}

func TestADBGetState(t *testing.T) {

	require := require.New(t)

	conn := ConnectionConfig{Kind: ConnectionNetwork, Host: "10.0.0.9", Port: 5555}
	runner := &scriptedRunner{outputs: map[string]string{
		"-s 10.0.0.9:5555 shell dumpsys power": "  mWakefulness=Awake\nDisplay Power: state=ON\n",
		"-s 10.0.0.9:5555 shell settings get":  "87\n",
	}}
	report, err := adbForTest(conn, runner).GetState(context.Background())
	require.NoError(err)
	require.Equal(&StateReport{IsOn: true, Brightness: 87}, report)

	runner.outputs["-s 10.0.0.9:5555 shell dumpsys power"] = "mWakefulness=Asleep\n"
	report, err = adbForTest(conn, runner).GetState(context.Background())
	require.NoError(err)
	require.False(report.IsOn)

	runner.outputs["-s 10.0.0.9:5555 shell dumpsys power"] = ""
	_, err = adbForTest(conn, runner).GetState(context.Background())
	require.ErrorIs(err, ErrMissingField)
}

func TestParseUSBDevices(t *testing.T) {
	output := `List of devices attached
FRAMEO0001             device usb:1-1 product:frameo model:Frame transport_id:1
192.168.1.20:5555      device product:frameo model:Frame transport_id:2
FRAMEO0002             unauthorized usb:1-2 transport_id:3
adb-XYZ._adb-tls-connect._tcp device
`
	require.Equal(t, []string{"FRAMEO0001"}, parseUSBDevices(output))
}

func TestParseRouteSource(t *testing.T) {
	output := "192.168.1.0/24 dev wlan0 proto kernel scope link src 192.168.1.20\n"
	require.Equal(t, "192.168.1.20", parseRouteSource(output))
	require.Equal(t, "", parseRouteSource(""))
}

func TestADBDeviceErrorIsNotDisconnected(t *testing.T) {

	require := require.New(t)

	conn := ConnectionConfig{Kind: ConnectionUSB, Serial: "FRAMEO0001"}
	runner := &scriptedRunner{
		outputs: map[string]string{"-s FRAMEO0001 shell": "Error: package com.example not found\n"},
		errs:    map[string]error{"-s FRAMEO0001 shell": errors.New("exit status 1")},
	}
	_, err := adbForTest(conn, runner).Shell(context.Background(), "pm clear com.example")
	require.Error(err)
	require.False(IsDeviceDisconnected(err))
	require.True(IsTransportError(err))

	runner.errs = nil
	output, err := adbForTest(conn, runner).Shell(context.Background(), "pm clear com.example")
	require.NoError(err)
	require.Contains(output, "not found")
}

func TestIsDisconnectedOutput(t *testing.T) {
	for output, expected := range map[string]bool{
		"error: device 'FRAMEO0001' not found\n": true,
		"error: device offline":                  true,
		"error: no devices/emulators found":      true,
		"error: closed":                          true,
		"adb: device unauthorized.":              true,
		"Error: package com.example not found":   false,
		"sh: closed: not found":                  false,
		"ok\nerror: device offline":              false,
	} {
		require.Equal(t, expected, isDisconnectedOutput(output), output)
	}
}

// shellRunner behaves like adb shell: the exit status of the remote
// pipeline is passed through.
func shellRunner(calls *[]string, outputs map[string]string) CommandRunner {
	return func(ctx context.Context, name string, args ...string) ([]byte, error) {
		command := args[len(args)-1]
		*calls = append(*calls, command)
		out, ok := outputs[strings.SplitN(command, " ", 2)[0]]
		if strings.Contains(command, "| grep") && !ok && !strings.HasSuffix(command, "|| true") {
			return nil, errors.New("exit status 1")
		}
		return []byte(out), nil
	}
}

func TestADBDetectResolutionFallsBackWhenGrepMatchesNothing(t *testing.T) {

	require := require.New(t)
	logger, _ := zap.NewDevelopment()

	conn := ConnectionConfig{Kind: ConnectionUSB, Serial: "FRAMEO0001"}
	var calls []string
	client := NewADBClientWithRunner(conn, DefaultTimeouts(), shellRunner(&calls, map[string]string{
		"wm": "Physical size: 1280x800\n",
	}), logger)

	res, ok := DetectResolution(context.Background(), client, logger)
	require.True(ok)
	require.Equal(Resolution{Width: 1280, Height: 800}, res)
	require.Equal([]string{displayMetricsCommand, wmSizeCommand}, calls)
}

func TestADBConnectKeepsConfiguredTarget(t *testing.T) {

	require := require.New(t)

	conn := ConnectionConfig{Kind: ConnectionUSB, Serial: "FRAMEO0001"}
	runner := &scriptedRunner{outputs: map[string]string{
		"-s FRAMEO0001 wait-for-device": "device\n",
		"-s FRAMEO0001 shell":           "ok\n",
	}}
	client := adbForTest(conn, runner)
	_, err := client.Connect(context.Background(), ConnectionConfig{Kind: ConnectionUSB, Serial: "OTHER"})
	require.NoError(err)

	_, err = client.Shell(context.Background(), "echo ok")
	require.NoError(err)
	require.Equal([]string{"-s", "FRAMEO0001", "shell", "echo ok"}, runner.calls[len(runner.calls)-1])
	require.NoError(client.Close())
}
