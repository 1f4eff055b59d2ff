package frameo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

type ConnectionKind string

const (
	ConnectionUSB     ConnectionKind = "USB"
	ConnectionNetwork ConnectionKind = "Network"

	DEFAULT_DEVICE_PORT = 5555
	DEFAULT_RELAY_HOST  = "localhost"
	DEFAULT_RELAY_PORT  = 5000

	DEFAULT_REQUEST_TIMEOUT  = 10 * time.Second
	DEFAULT_CONNECT_TIMEOUT  = 130 * time.Second
	DEFAULT_USB_SCAN_TIMEOUT = 30 * time.Second
)

type Endpoint struct {
	Host string
	Port uint
}

func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
}

// ConnectionConfig describes how to reach one device. It is built once at
// startup and never mutated.
type ConnectionConfig struct {
	Kind   ConnectionKind
	Serial string
	Host   string
	Port   uint
	// Relay is set when the device is reached through the HTTP add-on.
	Relay *Endpoint
}

func (c ConnectionConfig) Validate() error {
	switch c.Kind {
	case ConnectionUSB:
	case ConnectionNetwork:
		if c.Host == "" {
			return errors.New("network connection requires a host")
		}
		if c.Port == 0 || c.Port > 65535 {
			return fmt.Errorf("invalid device port %d", c.Port)
		}
	default:
		return fmt.Errorf("unknown connection type %q", c.Kind)
	}
	if c.Relay != nil && (c.Relay.Host == "" || c.Relay.Port == 0) {
		return errors.New("relay requires host and port")
	}
	return nil
}

// Target is the ADB device identifier: the serial for USB, host:port for
// network links.
func (c ConnectionConfig) Target() string {
	if c.Kind == ConnectionNetwork {
		return Endpoint{Host: c.Host, Port: c.Port}.Address()
	}
	return c.Serial
}

type ConnectStatus string

const (
	StatusConnected        ConnectStatus = "connected"
	StatusAlreadyConnected ConnectStatus = "already_connected"
	StatusError            ConnectStatus = "error"
)

func (s ConnectStatus) IsConnected() bool {
	return s == StatusConnected || s == StatusAlreadyConnected
}

type StateReport struct {
	IsOn       bool
	Brightness int
}

type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

type ShellRunner interface {
	Shell(ctx context.Context, command string) (string, error)
}

type Transport interface {
	ShellRunner
	Connect(ctx context.Context, conn ConnectionConfig) (ConnectStatus, error)
	GetState(ctx context.Context) (*StateReport, error)
	EnableWireless(ctx context.Context) error
	GetIPAddress(ctx context.Context) (string, error)
	Close() error
}

type USBScanner interface {
	ListUSBDevices(ctx context.Context) ([]string, error)
}

type Timeouts struct {
	Request time.Duration
	Connect time.Duration
	USBScan time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Request: DEFAULT_REQUEST_TIMEOUT,
		Connect: DEFAULT_CONNECT_TIMEOUT,
		USBScan: DEFAULT_USB_SCAN_TIMEOUT,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	d := DefaultTimeouts()
	if t.Request <= 0 {
		t.Request = d.Request
	}
	if t.Connect <= 0 {
		t.Connect = d.Connect
	}
	if t.USBScan <= 0 {
		t.USBScan = d.USBScan
	}
	return t
}

// NewTransport picks the relay client when a relay endpoint is configured
// and the direct ADB client otherwise.
func NewTransport(conn ConnectionConfig, timeouts Timeouts, logger *zap.Logger) (Transport, error) {
	if err := conn.Validate(); err != nil {
		return nil, err
	}
	if conn.Relay != nil {
		return NewRelayClient(*conn.Relay, timeouts, logger), nil
	}
	return NewADBClient(conn, timeouts, logger), nil
}
