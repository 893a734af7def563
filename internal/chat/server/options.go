package server

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Option - tunes Server.
type Option func(s *Server) error

func setup(s *Server, options ...Option) error {
	if s == nil {
		return nil
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(s); err != nil {
			return err
		}
	}
	return nil
}

// WithLogger - attaches logger, server is silent without it.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("server.WithLogger: logger is nil")
		}
		s.logger = logger
		return nil
	}
}

// WithMetrics - replaces metrics collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Server) error {
		if m == nil {
			return errors.New("server.WithMetrics: metrics is nil")
		}
		s.metrics = m
		return nil
	}
}

// WithLoginTimeout - overwrites time given to a new connection to send !login.
func WithLoginTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout <= 0 {
			return fmt.Errorf("server.WithLoginTimeout: invalid timeout (%v)", timeout)
		}
		s.loginTimeout = timeout
		return nil
	}
}

// WithIdleTimeout - overwrites idle period before authenticated session is dropped.
func WithIdleTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout <= 0 {
			return fmt.Errorf("server.WithIdleTimeout: invalid timeout (%v)", timeout)
		}
		s.idleTimeout = timeout
		return nil
	}
}

// WithWriteTimeout - overwrites write timeout of connections and datagrams.
func WithWriteTimeout(timeout time.Duration) Option {
	return func(s *Server) error {
		if timeout <= 0 {
			return fmt.Errorf("server.WithWriteTimeout: invalid timeout (%v)", timeout)
		}
		s.writeTimeout = timeout
		return nil
	}
}

// WithOutboxSize - overwrites number of lines queued for single session before it is dropped as too slow.
func WithOutboxSize(size int) Option {
	return func(s *Server) error {
		if size <= 0 {
			return fmt.Errorf("server.WithOutboxSize: invalid size (%d)", size)
		}
		s.outboxSize = size
		return nil
	}
}

// WithMaxConnections - overwrites max number of concurrently served TCP connections.
func WithMaxConnections(n int) Option {
	return func(s *Server) error {
		if n <= 0 {
			return fmt.Errorf("server.WithMaxConnections: invalid value (%d)", n)
		}
		s.maxConnections = n
		return nil
	}
}

// WithMaxDatagramWorkers - overwrites max number of concurrently answered UDP queries.
func WithMaxDatagramWorkers(n int) Option {
	return func(s *Server) error {
		if n <= 0 {
			return fmt.Errorf("server.WithMaxDatagramWorkers: invalid value (%d)", n)
		}
		s.maxDatagramWorkers = n
		return nil
	}
}
