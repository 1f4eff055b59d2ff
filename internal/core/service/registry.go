package service

import (
	"errors"
	"fmt"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/internal/core/port"

	"github.com/samber/lo"
)

// Registry is the arena of frame controllers, indexed by device id. It is
// filled once at startup and read-only afterwards.
type Registry struct {
	order       []string
	controllers map[string]port.DeviceController
}

func NewRegistry(controllers ...port.DeviceController) (*Registry, error) {
	r := &Registry{
		controllers: make(map[string]port.DeviceController, len(controllers)),
	}
	for _, c := range controllers {
		id := c.Device().Id
		if _, ok := r.controllers[id]; ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrDuplicateDevice, id)
		}
		r.controllers[id] = c
		r.order = append(r.order, id)
	}
	return r, nil
}

func (r *Registry) Get(id string) (port.DeviceController, error) {
	c, ok := r.controllers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownDevice, id)
	}
	return c, nil
}

func (r *Registry) Ids() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) All() []port.DeviceController {
	return lo.Map(r.order, func(id string, _ int) port.DeviceController {
		return r.controllers[id]
	})
}

func (r *Registry) Devices() []domain.FrameDevice {
	return lo.Map(r.All(), func(c port.DeviceController, _ int) domain.FrameDevice {
		return c.Device()
	})
}

func (r *Registry) Len() int {
	return len(r.order)
}

func (r *Registry) Close() error {
	var errs []error
	for _, c := range r.All() {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
