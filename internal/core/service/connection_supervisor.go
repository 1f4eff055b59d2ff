package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/berfenger/frameo2mqtt/internal/core/domain"
	"github.com/berfenger/frameo2mqtt/pkg/frameo"

	"go.uber.org/zap"
)

const (
	DEFAULT_MAX_RECONNECT_ATTEMPTS = 3
)

type Connector interface {
	Connect(ctx context.Context, conn frameo.ConnectionConfig) (frameo.ConnectStatus, error)
}

// ConnectionSupervisor tracks the link status of one frame and re-dials it
// on demand. The status starts optimistic: the first failing call flips it.
type ConnectionSupervisor struct {
	conn                 frameo.ConnectionConfig
	connector            Connector
	MaxReconnectAttempts uint
	ReconnectDelay       time.Duration
	status               atomic.Int32
	logger               *zap.Logger
}

func NewConnectionSupervisor(conn frameo.ConnectionConfig, connector Connector, logger *zap.Logger) *ConnectionSupervisor {
	return &ConnectionSupervisor{
		conn:                 conn,
		connector:            connector,
		MaxReconnectAttempts: DEFAULT_MAX_RECONNECT_ATTEMPTS,
		logger:               logger,
	}
}

func (s *ConnectionSupervisor) Status() domain.ConnectionStatus {
	return domain.ConnectionStatus(s.status.Load())
}

func (s *ConnectionSupervisor) setStatus(status domain.ConnectionStatus) {
	s.status.Store(int32(status))
}

func (s *ConnectionSupervisor) MarkDisconnected() {
	if s.Status() != domain.Disconnected {
		s.logger.Warn("device marked as disconnected", zap.String("target", s.conn.Target()))
	}
	s.setStatus(domain.Disconnected)
}

// EnsureConnected is a no-op while connected. Otherwise it performs up to
// MaxReconnectAttempts sequential reconnections.
func (s *ConnectionSupervisor) EnsureConnected(ctx context.Context) bool {
	if s.Status() == domain.Connected {
		return true
	}
	attempts := s.MaxReconnectAttempts
	if attempts == 0 {
		attempts = DEFAULT_MAX_RECONNECT_ATTEMPTS
	}
	for attempt := uint(1); attempt <= attempts; attempt++ {
		s.logger.Info("reconnecting to device", zap.String("attempt", fmt.Sprintf("%d/%d", attempt, attempts)))
		if s.Reconnect(ctx) {
			return true
		}
		if attempt < attempts && s.ReconnectDelay > 0 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(s.ReconnectDelay):
			}
		}
	}
	s.logger.Error("could not reconnect to device", zap.Uint("attempts", attempts))
	return false
}

// Reconnect is a single connection attempt.
func (s *ConnectionSupervisor) Reconnect(ctx context.Context) bool {
	status, err := s.connector.Connect(ctx, s.conn)
	if err != nil {
		s.logger.Warn("connect failed", zap.Error(err))
		s.setStatus(domain.Disconnected)
		return false
	}
	if !status.IsConnected() {
		s.logger.Warn("connect refused", zap.String("status", string(status)))
		s.setStatus(domain.Disconnected)
		return false
	}
	s.logger.Info("device connected", zap.String("status", string(status)))
	s.setStatus(domain.Connected)
	return true
}
