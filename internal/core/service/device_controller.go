package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/port"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"go.uber.org/zap"
)

type ReconnectOptions struct {
	MaxAttempts uint
	Delay       time.Duration
}

// FrameController wires supervisor, cache and dispatcher for one frame and
// runs one operation at a time against it.
type FrameController struct {
	device     domain.FrameDevice
	transport  frameo.Transport
	supervisor *ConnectionSupervisor
	cache      *StateCache
	dispatcher *CommandDispatcher
	mu         sync.Mutex
	logger     *zap.Logger
}

func NewFrameController(device domain.FrameDevice, transport frameo.Transport, opts ReconnectOptions, logger *zap.Logger) *FrameController {
	logger = logger.With(zap.String("device", device.Id))
	supervisor := NewConnectionSupervisor(device.Connection, transport, logger)
	if opts.MaxAttempts > 0 {
		supervisor.MaxReconnectAttempts = opts.MaxAttempts
	}
	supervisor.ReconnectDelay = opts.Delay
	return &FrameController{
		device:     device,
		transport:  transport,
		supervisor: supervisor,
		cache:      NewStateCache(device, transport, supervisor, logger),
		dispatcher: NewCommandDispatcher(transport, supervisor, logger),
		logger:     logger,
	}
}

func (c *FrameController) Device() domain.FrameDevice {
	return c.device
}

// Start performs the initial connection. It does not retry: a frame that
// cannot be reached at setup is reported right away.
func (c *FrameController) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.supervisor.Reconnect(ctx) {
		return fmt.Errorf("%w: %s", domain.ErrDeviceNotConnected, c.device.Connection.Target())
	}
	return nil
}

func (c *FrameController) EnsureConnected(ctx context.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supervisor.EnsureConnected(ctx)
}

func (c *FrameController) Refresh(ctx context.Context) (*domain.DeviceState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Refresh(ctx)
}

func (c *FrameController) Execute(ctx context.Context, command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatcher.Execute(ctx, command)
}

func (c *FrameController) RefreshResolution(ctx context.Context) frameo.Resolution {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.RefreshResolution(ctx)
}

func (c *FrameController) EnableWireless(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.supervisor.EnsureConnected(ctx) {
		return domain.ErrDeviceNotConnected
	}
	err := c.transport.EnableWireless(ctx)
	if err != nil && frameo.IsDeviceDisconnected(err) {
		c.supervisor.MarkDisconnected()
	}
	return err
}

func (c *FrameController) Snapshot() *domain.DeviceState {
	return c.cache.Snapshot()
}

func (c *FrameController) Status() domain.ConnectionStatus {
	return c.supervisor.Status()
}

func (c *FrameController) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transport.Close()
}

var _ port.DeviceController = (*FrameController)(nil)
