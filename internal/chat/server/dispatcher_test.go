package server

import (
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/protocol"
	"github.com/wtask/chatrelay/internal/chat/registry"
)

func TestNew_ErrorCase(test *testing.T) {
	reg := registry.New(nil)
	if _, err := New(nil); err == nil {
		test.Error("server.New accepted nil registry")
	}
	cases := []Option{
		WithLogger(nil),
		WithMetrics(nil),
		WithLoginTimeout(0),
		WithIdleTimeout(-time.Second),
		WithWriteTimeout(0),
		WithOutboxSize(0),
		WithMaxConnections(0),
		WithMaxDatagramWorkers(-1),
	}
	for i, option := range cases {
		if _, err := New(reg, option); err == nil {
			test.Errorf("case #%d: expected option error", i)
		}
	}
	s, err := New(reg, WithLogger(zap.NewNop()), WithOutboxSize(8), WithMaxConnections(2))
	if err != nil {
		test.Fatal("server.New:", err)
	}
	if s.outboxSize != 8 || s.conns.Size() != 2 {
		test.Error("options were not applied")
	}
	s.Shutdown(time.Second)
	if d := s.Shutdown(time.Second); d != 0 {
		test.Error("repeated Shutdown took", d)
	}
}

func TestServer_LoginScenario(test *testing.T) {
	s, reg, address := startServer(test)

	bob := login(test, address, "bob")
	bob.send(test, "!send Hello")

	carol := dial(test, address)
	carol.send(test, "!login carol x")
	carol.expect(test, protocol.LoginBadCredentials)
	carol.expectClosed(test)

	// bob's connection is alive and nothing was delivered to him
	bob.send(test, "!lookup carol")
	bob.expect(test, protocol.LookupNotFound("carol"))

	if n := testutil.ToFloat64(s.metrics.deliveries); n != 0 {
		test.Error("broadcast without recipients was delivered", n, "times")
	}
	if n := testutil.ToFloat64(s.metrics.broadcasts); n != 1 {
		test.Error("unexpected number of broadcasts:", n)
	}
	if reg.Len() != 1 {
		test.Error("unexpected number of sessions:", reg.Len())
	}
}

func TestServer_LoginAlreadyOnline(test *testing.T) {
	s, _, address := startServer(test)
	login(test, address, "bob")

	second := dial(test, address)
	second.send(test, "!login bob pw1")
	second.expect(test, protocol.LoginAlreadyOnline("bob"))
	second.expectClosed(test)

	if n := testutil.ToFloat64(s.metrics.logins.WithLabelValues("already_online")); n != 1 {
		test.Error("unexpected already_online logins:", n)
	}
}

func TestServer_Unauthenticated(test *testing.T) {
	_, reg, address := startServer(test)
	cases := []struct{ line, reply string }{
		{"!send Hello", protocol.NotLoggedIn},
		{"!lookup bob", protocol.NotLoggedIn},
		{"hello", protocol.NotLoggedIn},
		{"!login bob", "Error: Malformed command. Usage: !login <username> <password>"},
		{"!login", "Error: Malformed command. Usage: !login <username> <password>"},
	}
	for _, c := range cases {
		client := dial(test, address)
		client.send(test, c.line)
		client.expect(test, c.reply)
		client.expectClosed(test)
	}
	if reg.Len() != 0 {
		test.Error("unauthenticated connection created session")
	}
}

func TestServer_Broadcast(test *testing.T) {
	_, _, address := startServer(test)
	alice := login(test, address, "alice")
	bob := login(test, address, "bob")
	dave := login(test, address, "dave")

	alice.send(test, "!send Hello,  everyone")
	bob.expect(test, "alice: Hello,  everyone")
	dave.expect(test, "alice: Hello,  everyone")

	bob.send(test, "!send first")
	bob.send(test, "!send second")
	alice.expect(test, "bob: first")
	alice.expect(test, "bob: second")
	dave.expect(test, "bob: first")
	dave.expect(test, "bob: second")

	// sender never receives own message
	alice.send(test, "!lookup nobody")
	alice.expect(test, protocol.LookupNotFound("nobody"))
	bob.send(test, "!lookup nobody")
	bob.expect(test, protocol.LookupNotFound("nobody"))
}

func TestServer_RegisterLookup(test *testing.T) {
	_, _, address := startServer(test)
	alice := login(test, address, "alice")
	bob := login(test, address, "bob")

	bob.send(test, "!lookup alice")
	bob.expect(test, protocol.LookupNotFound("alice"))

	alice.send(test, "!register 127.0.0.1:5000")
	alice.expect(test, protocol.RegisterSucceeded("alice"))
	bob.send(test, "!lookup alice")
	bob.expect(test, protocol.LookupResult("alice", "127.0.0.1:5000"))

	alice.send(test, "!register localhost:5001")
	alice.expect(test, protocol.RegisterSucceeded("alice"))
	bob.send(test, "!lookup alice")
	bob.expect(test, protocol.LookupResult("alice", "localhost:5001"))

	for _, bad := range []string{"nowhere.invalid:5000", "127.0.0.1", "127.0.0.1:port"} {
		alice.send(test, "!register "+bad)
		alice.expect(test, protocol.RegisterFailed())
	}
	bob.send(test, "!lookup alice")
	bob.expect(test, protocol.LookupResult("alice", "localhost:5001"))
}

func TestServer_ProtocolErrorKeepsSession(test *testing.T) {
	_, _, address := startServer(test)
	bob := login(test, address, "bob")
	cases := []struct{ line, reply string }{
		{"!send", "!sm Error: Malformed command. Usage: !send <message>"},
		{"!register", "!sm Error: Malformed command. Usage: !register <host:port>"},
		{"!lookup", "!sm Error: Malformed command. Usage: !lookup <username>"},
		{"!lookup a b", "!sm Error: Malformed command. Usage: !lookup <username>"},
		{"!list", `!sm Error: Unknown command "!list".`},
		{"!login bob pw1", "!sm Error: Already logged in."},
	}
	for _, c := range cases {
		bob.send(test, c.line)
		bob.expect(test, c.reply)
	}
	bob.send(test, "")
	bob.send(test, "!lookup bob")
	bob.expect(test, protocol.LookupNotFound("bob"))
}

func TestServer_Logout(test *testing.T) {
	s, reg, address := startServer(test)
	bob := login(test, address, "bob")
	bob.send(test, "!logout")
	bob.expectClosed(test)
	if !waitUntil(time.Second, func() bool { return reg.Len() == 0 }) {
		test.Fatal("session is kept after logout")
	}
	if n := testutil.ToFloat64(s.metrics.sessionsClosed.WithLabelValues("logout")); n != 1 {
		test.Error("unexpected logout count:", n)
	}
	login(test, address, "bob")
}

func TestServer_Disconnect(test *testing.T) {
	s, reg, address := startServer(test)
	bob := login(test, address, "bob")
	bob.conn.Close()
	if !waitUntil(time.Second, func() bool { return reg.Len() == 0 }) {
		test.Fatal("session is kept after disconnect")
	}
	if !waitUntil(time.Second, func() bool {
		return testutil.ToFloat64(s.metrics.sessionsOnline) == 0
	}) {
		test.Error("sessions_online gauge is not zero")
	}
	login(test, address, "bob")
}

func TestServer_IdleTimeout(test *testing.T) {
	s, reg, address := startServer(test, WithIdleTimeout(50*time.Millisecond))
	bob := login(test, address, "bob")
	bob.expectClosed(test)
	if !waitUntil(time.Second, func() bool { return reg.Len() == 0 }) {
		test.Fatal("idle session is kept")
	}
	if !waitUntil(time.Second, func() bool {
		return testutil.ToFloat64(s.metrics.sessionsClosed.WithLabelValues("timeout")) == 1
	}) {
		test.Error("timeout is not counted")
	}
}

func TestServer_AdmissionControl(test *testing.T) {
	s, _, address := startServer(test, WithMaxConnections(1))
	login(test, address, "bob")

	refused := dial(test, address)
	refused.expect(test, protocol.ServerBusy)
	refused.expectClosed(test)
	if n := testutil.ToFloat64(s.metrics.rejected.WithLabelValues("tcp")); n != 1 {
		test.Error("unexpected rejected count:", n)
	}
}

func TestServer_Shutdown(test *testing.T) {
	s, reg, address := startServer(test)
	bob := login(test, address, "bob")
	alice := login(test, address, "alice")

	s.Shutdown(2 * time.Second)
	bob.expectClosed(test)
	alice.expectClosed(test)
	if reg.Len() != 0 {
		test.Error("sessions are kept after shutdown:", reg.Online())
	}
	if conn, err := net.DialTimeout("tcp", address, time.Second); err == nil {
		conn.Close()
		test.Error("listener accepts connections after shutdown")
	}
}

func TestServer_SendBlankAfterCleaning(test *testing.T) {
	s, _, address := startServer(test)
	alice := login(test, address, "alice")
	bob := login(test, address, "bob")

	alice.send(test, "!send \x01\x02")
	alice.expect(test, "!sm Error: Malformed command. Usage: !send <message>")

	// the next line bob gets is the lookup reply, nothing was broadcast
	bob.send(test, "!lookup nobody")
	bob.expect(test, protocol.LookupNotFound("nobody"))
	if n := testutil.ToFloat64(s.metrics.broadcasts); n != 0 {
		test.Error("blank message was broadcast", n, "times")
	}
}
