package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/wtask/chatrelay/internal/chat/protocol"
	"github.com/wtask/chatrelay/internal/chat/registry"
)

var accounts = map[string]string{
	"alice": "pw0",
	"bob":   "pw1",
	"dave":  "pw3",
}

func testRegistry(test *testing.T) *registry.Registry {
	test.Helper()
	hashes := map[string]string{}
	for name, password := range accounts {
		h, err := registry.HashPassword(password, bcrypt.MinCost)
		if err != nil {
			test.Fatal("HashPassword:", err)
		}
		hashes[name] = h
	}
	creds, err := registry.NewCredentials(hashes)
	if err != nil {
		test.Fatal("NewCredentials:", err)
	}
	resolver := func(ctx context.Context, host string) ([]string, error) {
		if host == "localhost" {
			return []string{"127.0.0.1"}, nil
		}
		return nil, errors.New("no such host")
	}
	return registry.New(creds, registry.WithResolver(resolver))
}

// startServer - launches server on loopback TCP port, it is stopped when test finishes.
func startServer(test *testing.T, options ...Option) (*Server, *registry.Registry, string) {
	test.Helper()
	reg := testRegistry(test)
	s, err := New(reg, append([]Option{WithLogger(zaptest.NewLogger(test))}, options...)...)
	if err != nil {
		test.Fatal("server.New:", err)
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		test.Fatal("net.Listen:", err)
	}
	served := make(chan struct{})
	go func() {
		defer close(served)
		s.ServeTCP(listener)
	}()
	test.Cleanup(func() {
		s.Shutdown(2 * time.Second)
		<-served
	})
	return s, reg, listener.Addr().String()
}

// netClient - raw line client of chat server.
type netClient struct {
	conn  net.Conn
	lines *bufio.Scanner
}

func dial(test *testing.T, address string) *netClient {
	test.Helper()
	conn, err := net.DialTimeout("tcp", address, time.Second)
	if err != nil {
		test.Fatal("Dial:", err)
	}
	test.Cleanup(func() { conn.Close() })
	return &netClient{conn, protocol.NewScanner(conn)}
}

func (c *netClient) send(test *testing.T, line string) {
	test.Helper()
	if err := protocol.WriteLine(c.conn, line); err != nil {
		test.Fatalf("send %q: %v", line, err)
	}
}

func (c *netClient) expect(test *testing.T, expected string) {
	test.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if !c.lines.Scan() {
		test.Fatalf("expected line %q, connection read failed: %v", expected, c.lines.Err())
	}
	if actual := c.lines.Text(); actual != expected {
		test.Fatalf("expected line %q, actual %q", expected, actual)
	}
}

func (c *netClient) expectClosed(test *testing.T) {
	test.Helper()
	c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if c.lines.Scan() {
		test.Fatalf("expected closed connection, got line %q", c.lines.Text())
	}
	var netErr net.Error
	if errors.As(c.lines.Err(), &netErr) && netErr.Timeout() {
		test.Fatal("expected closed connection, read timed out")
	}
}

func login(test *testing.T, address, username string) *netClient {
	test.Helper()
	c := dial(test, address)
	c.send(test, "!login "+username+" "+accounts[username])
	c.expect(test, protocol.LoginSucceeded)
	return c
}

func waitUntil(d time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
