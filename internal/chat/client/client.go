// Package client implements chat client: session controller over one server connection,
// background relay of server lines, peer address lookup and direct private messaging.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/console"
	"github.com/wtask/chatrelay/internal/chat/protocol"
	"github.com/wtask/chatrelay/pkg/background"
)

// State - stage of client session.
type State int

const (
	LoggedOut State = iota
	LoggingIn
	LoggedIn
	LoggingOut
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged out"
	case LoggingIn:
		return "logging in"
	case LoggedIn:
		return "logged in"
	case LoggingOut:
		return "logging out"
	default:
		return "unknown"
	}
}

// Client - chat client of single server.
type Client struct {
	server   string
	presence string
	logger   *zap.Logger
	console  console.Console

	lookupWindow,
	ackTimeout,
	dialTimeout,
	replyTimeout time.Duration

	scope *background.Scope
	cache *lookupCache

	mu       sync.Mutex
	state    State
	active   *session
	peers    net.Listener
	lastMsg  string
	shutdown bool
}

// session - live connection to server.
type session struct {
	username string
	conn     net.Conn
	// wmu keeps concurrent commands from interleaving on the wire
	wmu  sync.Mutex
	done chan struct{}
}

func (s *session) writeLine(line string) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	return protocol.WriteLine(s.conn, line)
}

// New - creates client of chat server listening TCP on server address and UDP on presence address.
func New(server, presence string, options ...Option) (*Client, error) {
	if server == "" {
		return nil, errors.New("client.New: server address is empty")
	}
	c := &Client{
		server:       server,
		presence:     presence,
		logger:       zap.NewNop(),
		console:      console.Discard,
		lookupWindow: 3 * time.Second,
		ackTimeout:   5 * time.Second,
		dialTimeout:  5 * time.Second,
		replyTimeout: 5 * time.Second,
		cache:        newLookupCache(),
	}
	if err := setup(c, options...); err != nil {
		return nil, err
	}
	c.scope, _ = background.NewScope(context.Background())
	return c, nil
}

// State - returns current session state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Login - opens connection and authenticates on server.
// Rejected login returns *LoginError with server reply.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	c.mu.Lock()
	switch {
	case c.shutdown:
		c.mu.Unlock()
		return "", ErrClosed
	case c.state != LoggedOut:
		c.mu.Unlock()
		return "", ErrAlreadyLoggedIn
	}
	c.state = LoggingIn
	c.mu.Unlock()

	s, reply, err := c.handshake(ctx, username, password)
	if err != nil {
		c.setState(LoggedOut)
		return "", err
	}

	c.mu.Lock()
	c.state = LoggedIn
	c.active = s
	c.mu.Unlock()

	lines := protocol.NewScanner(s.conn)
	if !c.scope.Go(func(context.Context) { c.relay(s, lines) }) {
		s.conn.Close()
		close(s.done)
		c.detach(s)
		return "", ErrClosed
	}
	c.logger.Info("logged in", zap.String("user", username), zap.String("server", c.server))
	return reply, nil
}

// handshake - dials server, sends !login and reads exactly one reply line.
func (c *Client) handshake(ctx context.Context, username, password string) (*session, string, error) {
	if username == "" || strings.ContainsAny(username, " \t\r\n") || password == "" || strings.ContainsAny(password, " \t\r\n") {
		return nil, "", &LoginError{Reply: "Error: Malformed command. Usage: !login <username> <password>"}
	}
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.server)
	if err != nil {
		c.logger.Warn("server is unreachable", zap.String("server", c.server), zap.Error(err))
		return nil, "", fmt.Errorf("Connection error to server: %s.", c.server)
	}
	deadline := time.Now().Add(c.replyTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	conn.SetDeadline(deadline)

	// the reply is read byte-wise, so nothing of later stream is buffered away from the relay
	if err := protocol.WriteLine(conn, protocol.VerbLogin+" "+username+" "+password); err != nil {
		conn.Close()
		return nil, "", fmt.Errorf("Connection error to server: %s.", c.server)
	}
	reply, err := readLine(conn)
	if err != nil {
		conn.Close()
		c.logger.Warn("login reply failed", zap.Error(err))
		return nil, "", fmt.Errorf("Connection error to server: %s.", c.server)
	}
	if reply != protocol.LoginSucceeded {
		conn.Close()
		return nil, "", &LoginError{Reply: reply}
	}
	conn.SetDeadline(time.Time{})
	return &session{username: username, conn: conn, done: make(chan struct{})}, reply, nil
}

// readLine - reads single line without read-ahead.
func readLine(conn net.Conn) (string, error) {
	line := []byte{}
	b := make([]byte, 1)
	for len(line) < protocol.MaxLineSize {
		if _, err := conn.Read(b); err != nil {
			return "", err
		}
		if b[0] == '\n' {
			return strings.TrimSuffix(string(line), "\r"), nil
		}
		line = append(line, b[0])
	}
	return "", errors.New("client: line too long")
}

// Logout - ends session. Calling it without session returns ErrNotLoggedIn.
func (c *Client) Logout() (string, error) {
	c.mu.Lock()
	if c.state != LoggedIn {
		c.mu.Unlock()
		return "", fmt.Errorf("%w Unable to log out.", ErrNotLoggedIn)
	}
	c.state = LoggingOut
	s := c.active
	c.mu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(c.replyTimeout))
	if err := s.writeLine(protocol.VerbLogout); err != nil {
		c.logger.Debug("logout not delivered", zap.Error(err))
	}
	s.conn.Close()
	<-s.done
	c.logger.Info("logged out", zap.String("user", s.username))
	return "Successfully logged out.", nil
}

// Send - broadcasts text to every other online user.
func (c *Client) Send(text string) error {
	s, err := c.current()
	if err != nil {
		return err
	}
	text = protocol.Clean(text)
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	return c.command(s, protocol.VerbSend+" "+text)
}

// LastMsg - returns last broadcast message received within session.
func (c *Client) LastMsg() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastMsg == "" {
		return "No message received!"
	}
	return c.lastMsg
}

// Exit - logs out, closes peer listener and waits for background tasks.
func (c *Client) Exit(timeout time.Duration) {
	if c.State() == LoggedIn {
		c.Logout()
	}
	c.mu.Lock()
	c.shutdown = true
	if c.peers != nil {
		c.peers.Close()
		c.peers = nil
	}
	c.mu.Unlock()
	c.scope.Shutdown(timeout)
}

// current - returns active session unless client is logged out.
func (c *Client) current() (*session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != LoggedIn {
		return nil, fmt.Errorf("%w Unable to send messages or commands.", ErrNotLoggedIn)
	}
	return c.active, nil
}

func (c *Client) command(s *session, line string) error {
	if err := s.writeLine(line); err != nil {
		// relay notices the broken connection and detaches session
		s.conn.Close()
		return fmt.Errorf("%w Connection to server lost.", ErrNotLoggedIn)
	}
	return nil
}

func (c *Client) setState(state State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// detach - single teardown of session, it forgets session state, lookup cache and peer listener.
// Returns true if the session was finished on logout.
func (c *Client) detach(s *session) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != s {
		return false
	}
	logout := c.state == LoggingOut
	c.active = nil
	c.state = LoggedOut
	c.lastMsg = ""
	if c.peers != nil {
		c.peers.Close()
		c.peers = nil
	}
	c.cache.reset()
	return logout
}
