package server

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/protocol"
)

// maxDatagramSize - longest accepted presence query.
const maxDatagramSize = 512

// ServeUDP - answers presence queries received on conn until Shutdown.
// Each reply is sent from its own ephemeral socket.
func (s *Server) ServeUDP(conn net.PacketConn) error {
	if conn == nil {
		return errors.New("server.ServeUDP: packet conn is nil")
	}
	if !s.scope.Go(func(ctx context.Context) {
		<-ctx.Done()
		conn.Close()
	}) {
		conn.Close()
		return ErrUnderStopCondition
	}
	s.logger.Info("serving udp", zap.String("address", conn.LocalAddr().String()))

	buf := make([]byte, maxDatagramSize)
	for {
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if s.scope.Context().Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.logger.Warn("udp read failed", zap.Error(err))
			continue
		}
		payload := string(buf[:n])
		if !s.datagrams.TryGo(func(context.Context) { s.answer(addr, payload) }) {
			s.metrics.rejected.WithLabelValues("udp").Inc()
			s.logger.Warn("datagram dropped by admission control", zap.Stringer("remote", addr))
		}
	}
}

// presence - builds reply for presence query.
func (s *Server) presence(payload string) string {
	if strings.TrimSpace(payload) == protocol.VerbList {
		s.metrics.udpQueries.WithLabelValues("list").Inc()
		return protocol.ListReply(s.registry.Online())
	}
	s.metrics.udpQueries.WithLabelValues("unknown").Inc()
	return protocol.UnknownUDPCommand
}

func (s *Server) answer(to net.Addr, payload string) {
	reply := s.presence(payload)
	c, err := net.Dial(to.Network(), to.String())
	if err != nil {
		s.logger.Warn("udp reply socket failed", zap.Stringer("remote", to), zap.Error(err))
		return
	}
	defer c.Close()
	c.SetWriteDeadline(time.Now().Add(s.writeTimeout))
	if _, err := c.Write([]byte(reply)); err != nil {
		s.logger.Warn("udp reply failed", zap.Stringer("remote", to), zap.Error(err))
	}
}
