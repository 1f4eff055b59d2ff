package service

import (
	"context"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"go.uber.org/zap"
)

type CommandDispatcher struct {
	shell      frameo.ShellRunner
	supervisor *ConnectionSupervisor
	logger     *zap.Logger
}

func NewCommandDispatcher(shell frameo.ShellRunner, supervisor *ConnectionSupervisor, logger *zap.Logger) *CommandDispatcher {
	return &CommandDispatcher{
		shell:      shell,
		supervisor: supervisor,
		logger:     logger,
	}
}

// Execute runs a shell command. A disconnection gets exactly one reconnect
// and retry; any other error is returned as is.
func (d *CommandDispatcher) Execute(ctx context.Context, command string) (string, error) {
	if !d.supervisor.EnsureConnected(ctx) {
		return "", domain.ErrDeviceNotConnected
	}

	d.logger.Debug("execute", zap.String("command", command))
	output, err := d.shell.Shell(ctx, command)
	if err == nil || !frameo.IsDeviceDisconnected(err) {
		return output, err
	}

	d.supervisor.MarkDisconnected()
	if !d.supervisor.Reconnect(ctx) {
		return "", err
	}
	output, err = d.shell.Shell(ctx, command)
	if err != nil && frameo.IsDeviceDisconnected(err) {
		d.supervisor.MarkDisconnected()
	}
	return output, err
}
