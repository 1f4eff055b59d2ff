package port

import (
	"context"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"
)

// DeviceController is everything a presentation adapter needs from one
// frame. Implementations serialise calls per device.
type DeviceController interface {
	Device() domain.FrameDevice
	// Start performs the initial connection with a single attempt.
	Start(ctx context.Context) error
	EnsureConnected(ctx context.Context) bool
	Refresh(ctx context.Context) (*domain.DeviceState, error)
	Execute(ctx context.Context, command string) (string, error)
	RefreshResolution(ctx context.Context) frameo.Resolution
	EnableWireless(ctx context.Context) error
	// Snapshot returns the last successful refresh, nil before the first one.
	Snapshot() *domain.DeviceState
	Status() domain.ConnectionStatus
	Close() error
}
