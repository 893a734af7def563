// Package server implements rendezvous chat server: TCP command dispatcher and UDP presence responder.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/protocol"
	"github.com/wtask/chatrelay/internal/chat/registry"
	"github.com/wtask/chatrelay/pkg/background"
)

// Server - represents chat server over TCP listeners and UDP packet connections.
type Server struct {
	registry *registry.Registry
	logger   *zap.Logger
	metrics  *Metrics

	loginTimeout,
	idleTimeout,
	writeTimeout time.Duration
	outboxSize         int
	maxConnections     int
	maxDatagramWorkers int

	scope     *background.Scope
	conns     *background.Pool
	datagrams *background.Pool
}

// New - creates server over session registry.
func New(reg *registry.Registry, options ...Option) (*Server, error) {
	if reg == nil {
		return nil, errors.New("server.New: registry is nil")
	}
	s := &Server{
		registry:           reg,
		logger:             zap.NewNop(),
		loginTimeout:       30 * time.Second,
		idleTimeout:        30 * time.Minute,
		writeTimeout:       30 * time.Second,
		outboxSize:         256,
		maxConnections:     1024,
		maxDatagramWorkers: 64,
	}
	if err := setup(s, options...); err != nil {
		return nil, err
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}

	s.scope, _ = background.NewScope(context.Background())
	var err error
	if s.conns, err = background.NewPool(s.scope, s.maxConnections); err != nil {
		return nil, fmt.Errorf("server.New: %w", err)
	}
	if s.datagrams, err = background.NewPool(s.scope, s.maxDatagramWorkers); err != nil {
		return nil, fmt.Errorf("server.New: %w", err)
	}
	return s, nil
}

// Metrics - returns server metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// ServeTCP - accepts chat connections until Shutdown.
// Connections over the limit are refused with busy notice.
func (s *Server) ServeTCP(listener net.Listener) error {
	if listener == nil {
		return errors.New("server.ServeTCP: listener is nil")
	}
	if !s.scope.Go(func(ctx context.Context) {
		<-ctx.Done()
		listener.Close()
	}) {
		listener.Close()
		return ErrUnderStopCondition
	}
	s.logger.Info("serving tcp", zap.String("address", listener.Addr().String()))

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.scope.Context().Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Warn("accept failed", zap.Error(err))
			time.Sleep(50 * time.Millisecond)
			continue
		}

		if !s.conns.TryGo(func(ctx context.Context) { s.serveConn(ctx, conn) }) {
			s.metrics.rejected.WithLabelValues("tcp").Inc()
			s.logger.Warn("connection refused by admission control", zap.Stringer("remote", conn.RemoteAddr()))
			conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			protocol.WriteLine(conn, protocol.ServerBusy)
			conn.Close()
		}
	}
}

// Shutdown - stops listeners, closes every connection and waits for workers no longer than timeout.
// Returns stopping duration.
func (s *Server) Shutdown(timeout time.Duration) time.Duration {
	if s.scope.Context().Err() != nil {
		return 0
	}
	return s.scope.Shutdown(timeout)
}
