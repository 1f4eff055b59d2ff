package service

import (
	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"go.uber.org/zap"
)

func testFrameDevice(id string, trackIP bool) domain.FrameDevice {
	return domain.FrameDevice{
		Id:   id,
		Name: "Living room",
		Connection: frameo.ConnectionConfig{
			Kind: frameo.ConnectionNetwork,
			Host: "192.168.1.50",
			Port: frameo.DEFAULT_DEVICE_PORT,
		},
		DefaultResolution: frameo.Resolution{Width: 1280, Height: 800},
		TrackIPAddress:    trackIP,
	}
}

// NewTestFrameController builds a controller over a scripted transport.
func NewTestFrameController(id string, transport *frameo.TestTransport, logger *zap.Logger) *FrameController {
	return NewFrameController(testFrameDevice(id, true), transport, ReconnectOptions{}, logger)
}
