package frameo

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// TestTransport is a scriptable in-memory device. Queued results are
// consumed first; once a queue is empty the healthy defaults apply.
type TestTransport struct {
	mu sync.Mutex

	ConnectResults []TestConnectResult
	StateResults   []TestStateResult
	ShellResults   []TestShellResult
	IPResults      []TestIPResult
	WirelessErr    error

	State      StateReport
	IPAddress  string
	Resolution Resolution
	USBSerials []string

	calls    map[string]int
	commands []string
	closed   bool
}

type TestConnectResult struct {
	Status ConnectStatus
	Err    error
}

type TestStateResult struct {
	Report *StateReport
	Err    error
}

type TestShellResult struct {
	Output string
	Err    error
}

type TestIPResult struct {
	IP  string
	Err error
}

func CreateTestTransport() *TestTransport {
	return &TestTransport{
		State:      StateReport{IsOn: true, Brightness: 128},
		IPAddress:  "192.168.1.50",
		Resolution: Resolution{Width: 800, Height: 1280},
		USBSerials: []string{"FRAMEO0001"},
		calls:      map[string]int{},
	}
}

func (t *TestTransport) record(op string) {
	if t.calls == nil {
		t.calls = map[string]int{}
	}
	t.calls[op]++
}

func (t *TestTransport) Calls(op string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.calls[op]
}

// Commands returns the shell commands received, in order.
func (t *TestTransport) Commands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.commands...)
}

func (t *TestTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func (t *TestTransport) Connect(ctx context.Context, conn ConnectionConfig) (ConnectStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("connect")
	if len(t.ConnectResults) > 0 {
		r := t.ConnectResults[0]
		t.ConnectResults = t.ConnectResults[1:]
		return r.Status, r.Err
	}
	return StatusConnected, nil
}

func (t *TestTransport) Shell(ctx context.Context, command string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("shell")
	t.commands = append(t.commands, command)
	if len(t.ShellResults) > 0 {
		r := t.ShellResults[0]
		t.ShellResults = t.ShellResults[1:]
		return r.Output, r.Err
	}
	switch {
	case strings.HasPrefix(command, "dumpsys display"):
		return "mViewport=DisplayViewport{valid=true, deviceWidth=" + strconv.Itoa(t.Resolution.Width) +
			", deviceHeight=" + strconv.Itoa(t.Resolution.Height) + "}", nil
	case command == wmSizeCommand:
		return "Physical size: " + t.Resolution.String(), nil
	case strings.HasPrefix(command, "settings put system screen_brightness "):
		if b, err := strconv.Atoi(strings.TrimPrefix(command, "settings put system screen_brightness ")); err == nil {
			t.State.Brightness = b
		}
	case command == CMD_POWER_KEY:
		t.State.IsOn = !t.State.IsOn
	}
	return "", nil
}

func (t *TestTransport) GetState(ctx context.Context) (*StateReport, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("state")
	if len(t.StateResults) > 0 {
		r := t.StateResults[0]
		t.StateResults = t.StateResults[1:]
		return r.Report, r.Err
	}
	state := t.State
	return &state, nil
}

func (t *TestTransport) EnableWireless(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("tcpip")
	return t.WirelessErr
}

func (t *TestTransport) GetIPAddress(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("ip")
	if len(t.IPResults) > 0 {
		r := t.IPResults[0]
		t.IPResults = t.IPResults[1:]
		return r.IP, r.Err
	}
	return t.IPAddress, nil
}

func (t *TestTransport) ListUSBDevices(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.record("usb")
	return t.USBSerials, nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Errors matching what the real transports return.

func TestDisconnectedError(op string) error {
	return newDisconnectedError(op, 503, ErrMalformedResponse)
}

func TestTransportError(op string) error {
	return newTransportError(op, 500, ErrMalformedResponse)
}

var _ Transport = (*TestTransport)(nil)
var _ Transport = (*RelayClient)(nil)
var _ Transport = (*ADBClient)(nil)
var _ USBScanner = (*RelayClient)(nil)
var _ USBScanner = (*ADBClient)(nil)
