package domain

import (
	"errors"
	"fmt"

	"github.com/berfenger/frameo2mqtt/pkg/frameo"
)

const (
	IP_ADDRESS_UNKNOWN = "unknown"
)

var (
	ErrDeviceNotConnected = errors.New("device not connected")
	ErrUnknownDevice      = errors.New("unknown device")
	ErrUnknownButton      = errors.New("unknown button")
	ErrDuplicateDevice    = errors.New("duplicate device id")
)

type ConnectionStatus int

const (
	Connected ConnectionStatus = iota
	Disconnected
)

func (s ConnectionStatus) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	}
	return fmt.Sprintf("ConnectionStatus(%d)", int(s))
}

// FrameDevice is the static description of one frame, fixed at startup.
type FrameDevice struct {
	Id                string
	Name              string
	Connection        frameo.ConnectionConfig
	DefaultResolution frameo.Resolution
	TrackIPAddress    bool
}

// DeviceState is an immutable snapshot. Readers always receive a copy.
type DeviceState struct {
	IsOn         bool
	Brightness   uint8
	ScreenWidth  int
	ScreenHeight int
	IPAddress    string
}

func (s DeviceState) Resolution() frameo.Resolution {
	return frameo.Resolution{Width: s.ScreenWidth, Height: s.ScreenHeight}
}

func NewDeviceState(report frameo.StateReport, res frameo.Resolution, ipAddress string) DeviceState {
	brightness := report.Brightness
	if brightness < 0 {
		brightness = 0
	} else if brightness > 255 {
		brightness = 255
	}
	return DeviceState{
		IsOn:         report.IsOn,
		Brightness:   uint8(brightness),
		ScreenWidth:  res.Width,
		ScreenHeight: res.Height,
		IPAddress:    ipAddress,
	}
}

// UpdateFailedError is the outcome of every failed refresh.
type UpdateFailedError struct {
	Reason string
	Err    error
}

func (e *UpdateFailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("update failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("update failed: %s", e.Reason)
}

func (e *UpdateFailedError) Unwrap() error {
	return e.Err
}

func NewUpdateFailedError(reason string, err error) *UpdateFailedError {
	return &UpdateFailedError{Reason: reason, Err: err}
}

func IsUpdateFailed(err error) bool {
	var ue *UpdateFailedError
	return errors.As(err, &ue)
}
