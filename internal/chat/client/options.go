package client

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/console"
)

// Option - tunes Client.
type Option func(c *Client) error

func setup(c *Client, options ...Option) error {
	if c == nil {
		return nil
	}
	for _, option := range options {
		if option == nil {
			continue
		}
		if err := option(c); err != nil {
			return err
		}
	}
	return nil
}

// WithLogger - attaches diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.New("client.WithLogger: logger is nil")
		}
		c.logger = logger
		return nil
	}
}

// WithConsole - attaches operator console receiving chat messages, server notices and private messages.
func WithConsole(out console.Console) Option {
	return func(c *Client) error {
		if out == nil {
			return errors.New("client.WithConsole: console is nil")
		}
		c.console = out
		return nil
	}
}

func positive(name string, d time.Duration, apply func()) error {
	if d <= 0 {
		return fmt.Errorf("client.%s: invalid timeout (%v)", name, d)
	}
	apply()
	return nil
}

// WithLookupWindow - overwrites time to wait for lookup reply.
func WithLookupWindow(d time.Duration) Option {
	return func(c *Client) error {
		return positive("WithLookupWindow", d, func() { c.lookupWindow = d })
	}
}

// WithAckTimeout - overwrites time to wait for peer acknowledgment.
// Inbound peer connections are given the same time to deliver their line.
func WithAckTimeout(d time.Duration) Option {
	return func(c *Client) error {
		return positive("WithAckTimeout", d, func() { c.ackTimeout = d })
	}
}

// WithDialTimeout - overwrites connect timeout to server and peers.
func WithDialTimeout(d time.Duration) Option {
	return func(c *Client) error {
		return positive("WithDialTimeout", d, func() { c.dialTimeout = d })
	}
}

// WithReplyTimeout - overwrites time to wait for login reply and presence reply.
func WithReplyTimeout(d time.Duration) Option {
	return func(c *Client) error {
		return positive("WithReplyTimeout", d, func() { c.replyTimeout = d })
	}
}
