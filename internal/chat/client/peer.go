package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/protocol"
)

// Register - announces address to server and starts accepting private messages on its port.
// Previously opened peer listener is replaced.
func (c *Client) Register(address string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	if strings.ContainsAny(address, " \t\r\n") {
		return ErrBadAddress
	}
	_, port, err := net.SplitHostPort(address)
	if err != nil {
		return ErrBadAddress
	}
	if p, err := strconv.Atoi(port); err != nil || p <= 0 || p > 65535 {
		return ErrBadAddress
	}
	if err := c.command(s, protocol.VerbRegister+" "+address); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != s {
		return fmt.Errorf("%w Connection to server lost.", ErrNotLoggedIn)
	}
	if c.peers != nil {
		c.peers.Close()
		c.peers = nil
	}
	listener, err := net.Listen("tcp", net.JoinHostPort("", port))
	if err != nil {
		return fmt.Errorf("Error creating TCP socket: %w", err)
	}
	if !c.scope.Go(func(context.Context) { c.acceptPeers(listener) }) {
		listener.Close()
		return ErrClosed
	}
	c.peers = listener
	c.logger.Info("peer listener started", zap.Stringer("address", listener.Addr()))
	return nil
}

// acceptPeers - serves inbound peer connections until listener is closed.
func (c *Client) acceptPeers(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				c.logger.Warn("peer listener stopped", zap.Error(err))
			}
			return
		}
		if !c.scope.Go(func(context.Context) { c.receive(conn) }) {
			conn.Close()
			return
		}
	}
}

// receive - strictly one message per connection: read line, show it, acknowledge.
func (c *Client) receive(conn net.Conn) {
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.ackTimeout))
	lines := protocol.NewScanner(conn)
	if !lines.Scan() {
		host, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
		c.console.WriteLine(fmt.Sprintf("ERROR: I/O communication error with client [%s].", host))
		c.logger.Debug("peer message not received", zap.Stringer("remote", conn.RemoteAddr()), zap.Error(lines.Err()))
		return
	}
	c.console.WriteLine(lines.Text())
	if err := protocol.WriteLine(conn, protocol.Ack); err != nil {
		c.logger.Debug("ack not delivered", zap.Stringer("remote", conn.RemoteAddr()), zap.Error(err))
	}
}

// Msg - sends private message directly to peer.
// Unresolved peer returns empty result without error.
func (c *Client) Msg(ctx context.Context, username, text string) (string, error) {
	s, err := c.current()
	if err != nil {
		return "", err
	}
	text = protocol.Clean(text)
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}
	address, err := c.resolve(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		return "", nil
	case err != nil:
		return "", err
	}
	if err := c.deliver(ctx, address, protocol.PrivateMessage(s.username, text)); err != nil {
		c.logger.Info("private message not delivered", zap.String("peer", username), zap.String("address", address), zap.Error(err))
		if errors.Is(err, errNoAck) {
			err = nil
		}
		return "", &DeliveryError{Username: username, Err: err}
	}
	return username + " replied with " + protocol.Ack + ".", nil
}

// errNoAck - peer answered with unexpected line.
var errNoAck = errors.New("client: peer reply is not ack")

func (c *Client) deliver(ctx context.Context, address, line string) error {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(c.ackTimeout))
	if err := protocol.WriteLine(conn, line); err != nil {
		return err
	}
	lines := protocol.NewScanner(conn)
	if !lines.Scan() {
		if err := lines.Err(); err != nil {
			return err
		}
		return errNoAck
	}
	if lines.Text() != protocol.Ack {
		return errNoAck
	}
	return nil
}

// PeerAddr - address of running peer listener.
func (c *Client) PeerAddr() (net.Addr, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.peers == nil {
		return nil, false
	}
	return c.peers.Addr(), true
}
