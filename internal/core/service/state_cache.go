package service

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// StateCache holds the last known state of one frame and refreshes it on
// demand. Snapshots are replaced whole; a failed refresh leaves the previous
// one in place.
type StateCache struct {
	device     domain.FrameDevice
	transport  frameo.Transport
	supervisor *ConnectionSupervisor
	snapshot   atomic.Pointer[domain.DeviceState]
	detected   atomic.Pointer[frameo.Resolution]
	logger     *zap.Logger
}

func NewStateCache(device domain.FrameDevice, transport frameo.Transport, supervisor *ConnectionSupervisor, logger *zap.Logger) *StateCache {
	return &StateCache{
		device:     device,
		transport:  transport,
		supervisor: supervisor,
		logger:     logger,
	}
}

func (c *StateCache) Refresh(ctx context.Context) (*domain.DeviceState, error) {
	if !c.supervisor.EnsureConnected(ctx) {
		return nil, domain.NewUpdateFailedError("device not connected", domain.ErrDeviceNotConnected)
	}

	if c.detected.Load() == nil {
		if _, ok := c.detectResolution(ctx); !ok {
			c.logger.Warn("screen resolution not detected, using configured default",
				zap.Stringer("resolution", c.device.DefaultResolution))
		}
	}

	report, ip, err := c.query(ctx)
	if err != nil && frameo.IsDeviceDisconnected(err) {
		c.supervisor.MarkDisconnected()
		if !c.supervisor.EnsureConnected(ctx) {
			return nil, domain.NewUpdateFailedError("device disconnected", err)
		}
		report, ip, err = c.query(ctx)
		if err != nil && frameo.IsDeviceDisconnected(err) {
			c.supervisor.MarkDisconnected()
			return nil, domain.NewUpdateFailedError("device disconnected", err)
		}
	}
	if err != nil {
		return nil, domain.NewUpdateFailedError("state query failed", err)
	}

	state := domain.NewDeviceState(*report, c.Resolution(), ip)
	c.snapshot.Store(&state)
	c.logger.Debug("device state refreshed", zap.Any("state", state))

	result := state
	return &result, nil
}

// RefreshResolution forces a new detection and returns the resolution in
// effect afterwards.
func (c *StateCache) RefreshResolution(ctx context.Context) frameo.Resolution {
	if _, ok := c.detectResolution(ctx); !ok {
		c.logger.Warn("screen resolution not detected, keeping previous value",
			zap.Stringer("resolution", c.Resolution()))
	}
	return c.Resolution()
}

// Resolution is the last detected resolution, or the configured default
// when detection never succeeded.
func (c *StateCache) Resolution() frameo.Resolution {
	if res := c.detected.Load(); res != nil {
		return *res
	}
	return c.device.DefaultResolution
}

func (c *StateCache) Snapshot() *domain.DeviceState {
	state := c.snapshot.Load()
	if state == nil {
		return nil
	}
	result := *state
	return &result
}

func (c *StateCache) detectResolution(ctx context.Context) (frameo.Resolution, bool) {
	res, ok := frameo.DetectResolution(ctx, c.transport, c.logger)
	if ok {
		c.detected.Store(&res)
	}
	return res, ok
}

// query reads the power state and, when tracked, the IP address. Both run
// concurrently; only the power state is mandatory.
func (c *StateCache) query(ctx context.Context) (*frameo.StateReport, string, error) {
	var report *frameo.StateReport
	ip := ""

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := c.transport.GetState(gctx)
		if err != nil {
			return err
		}
		if r == nil {
			return fmt.Errorf("%w: state", frameo.ErrMissingField)
		}
		report = r
		return nil
	})
	if c.device.TrackIPAddress {
		ip = domain.IP_ADDRESS_UNKNOWN
		g.Go(func() error {
			addr, err := c.transport.GetIPAddress(gctx)
			if err != nil {
				c.logger.Warn("could not read IP address", zap.Error(err))
				return nil
			}
			ip = addr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return report, ip, nil
}
