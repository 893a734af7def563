package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/protocol"
)

// maxPresenceReply - longest accepted presence reply.
const maxPresenceReply = 64 * 1024

// List - asks server over UDP for online users.
// Reply is accepted from any source port, server answers from ephemeral socket.
func (c *Client) List(ctx context.Context) (string, error) {
	if c.presence == "" {
		return "", errors.New("client.List: presence address is not configured")
	}
	to, err := net.ResolveUDPAddr("udp", c.presence)
	if err != nil {
		return "", fmt.Errorf("Error connecting to host [%s]. Host not found.", c.presence)
	}
	conn, err := net.ListenPacket("udp", ":0")
	if err != nil {
		return "", fmt.Errorf("Error creating new UDP socket: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if _, err := conn.WriteTo([]byte(protocol.VerbList), to); err != nil {
		return "", fmt.Errorf("Error sending UDP packet to host [%s].", c.presence)
	}
	conn.SetReadDeadline(time.Now().Add(c.replyTimeout))
	buf := make([]byte, maxPresenceReply)
	n, from, err := conn.ReadFrom(buf)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return "", fmt.Errorf("Error receiving UDP packet from host [%s]. %w", c.presence, ErrNoResponse)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("Error receiving UDP packet from host [%s].", c.presence)
	}
	c.logger.Debug("presence reply", zap.Stringer("from", from), zap.Int("size", n))
	return string(buf[:n]), nil
}
