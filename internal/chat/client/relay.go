package client

import (
	"bufio"

	"go.uber.org/zap"

	"github.com/wtask/chatrelay/internal/chat/protocol"
)

// relay - reads server lines of session until the connection is gone, then detaches session.
func (c *Client) relay(s *session, lines *bufio.Scanner) {
	defer close(s.done)
	for lines.Scan() {
		c.dispatch(lines.Text())
	}
	err := lines.Err()
	s.conn.Close()
	if !c.detach(s) {
		c.console.WriteLine("Connection to server closed.")
		c.logger.Info("server connection lost", zap.String("user", s.username), zap.Error(err))
	}
}

func (c *Client) dispatch(line string) {
	kind, payload := protocol.Classify(line)
	switch kind {
	case protocol.KindNotice:
		c.console.WriteLine(payload)
	case protocol.KindLookupResult:
		username, address, ok := protocol.ParseLookupResult(payload)
		if !ok {
			c.logger.Warn("malformed lookup result", zap.String("line", line))
			return
		}
		c.cache.put(username, address)
	case protocol.KindChat:
		c.mu.Lock()
		c.lastMsg = line
		c.mu.Unlock()
		c.console.WriteLine(line)
	default:
		c.logger.Debug("unexpected server line", zap.String("line", line))
	}
}
