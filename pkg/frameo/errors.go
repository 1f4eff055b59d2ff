package frameo

import (
	"errors"
	"fmt"
)

var (
	ErrMalformedResponse = errors.New("malformed response")
	ErrMissingField      = errors.New("missing required field")
)

// TransportError is a failed remote call: network, timeout, unexpected
// status or an unusable payload.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("frameo %s: HTTP %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("frameo %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// DeviceDisconnectedError signals that the link to the device itself is
// down, as opposed to a single request failing.
type DeviceDisconnectedError struct {
	TransportError
}

func (e *DeviceDisconnectedError) Error() string {
	return fmt.Sprintf("frameo %s: device disconnected: %v", e.Op, e.Err)
}

// As lets a disconnection be handled wherever a *TransportError is expected.
func (e *DeviceDisconnectedError) As(target any) bool {
	if t, ok := target.(**TransportError); ok {
		*t = &e.TransportError
		return true
	}
	return false
}

func newTransportError(op string, status int, err error) *TransportError {
	return &TransportError{Op: op, StatusCode: status, Err: err}
}

func newDisconnectedError(op string, status int, err error) *DeviceDisconnectedError {
	return &DeviceDisconnectedError{TransportError: TransportError{Op: op, StatusCode: status, Err: err}}
}

func IsDeviceDisconnected(err error) bool {
	var de *DeviceDisconnectedError
	return errors.As(err, &de)
}

func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
