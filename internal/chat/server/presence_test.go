package server

import (
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap/zaptest"

	"github.com/wtask/chatrelay/internal/chat/protocol"
)

func servePresence(test *testing.T, s *Server) net.Addr {
	test.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		test.Fatal("ListenPacket:", err)
	}
	served := make(chan struct{})
	go func() {
		defer close(served)
		s.ServeUDP(conn)
	}()
	test.Cleanup(func() {
		s.Shutdown(2 * time.Second)
		<-served
	})
	return conn.LocalAddr()
}

// query - sends datagram from unconnected socket, the reply may come from any port.
func query(test *testing.T, server net.Addr, payload string) (string, net.Addr) {
	test.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		test.Fatal("ListenPacket:", err)
	}
	defer conn.Close()
	if _, err := conn.WriteTo([]byte(payload), server); err != nil {
		test.Fatal("WriteTo:", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 4096)
	n, from, err := conn.ReadFrom(buf)
	if err != nil {
		test.Fatal("ReadFrom:", err)
	}
	return string(buf[:n]), from
}

func TestServer_Presence(test *testing.T) {
	s, _, address := startServer(test)
	udp := servePresence(test, s)

	reply, from := query(test, udp, "!list")
	if reply != protocol.NoUsersOnline {
		test.Errorf("unexpected reply %q", reply)
	}
	if from.String() == udp.String() {
		test.Error("reply is sent from listening socket")
	}

	login(test, address, "dave")
	login(test, address, "alice")
	login(test, address, "bob")
	if reply, _ := query(test, udp, " !list\n"); reply != "alice\nbob\ndave" {
		test.Errorf("unexpected reply %q", reply)
	}

	for _, payload := range []string{"!lookup bob", "list", "!list now"} {
		if reply, _ := query(test, udp, payload); reply != protocol.UnknownUDPCommand {
			test.Errorf("%q: unexpected reply %q", payload, reply)
		}
	}
	if n := testutil.ToFloat64(s.metrics.udpQueries.WithLabelValues("list")); n != 2 {
		test.Error("unexpected list queries:", n)
	}
	if n := testutil.ToFloat64(s.metrics.udpQueries.WithLabelValues("unknown")); n != 3 {
		test.Error("unexpected unknown queries:", n)
	}
}

func TestServer_ServeUDP_ErrorCase(test *testing.T) {
	s, err := New(testRegistry(test), WithLogger(zaptest.NewLogger(test)))
	if err != nil {
		test.Fatal("server.New:", err)
	}
	if err := s.ServeUDP(nil); err == nil {
		test.Error("ServeUDP accepted nil conn")
	}
	s.Shutdown(time.Second)

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		test.Fatal("ListenPacket:", err)
	}
	if err := s.ServeUDP(conn); err != ErrUnderStopCondition {
		test.Error("expected ErrUnderStopCondition, got", err)
	}
}
