package server

import (
	"net"
	"sync"
	"time"

	"github.com/wtask/chatrelay/internal/chat/protocol"
)

// outbox - outbound writer of single session. It keeps FIFO order of enqueued lines.
type outbox struct {
	conn         net.Conn
	writeTimeout time.Duration

	mu        sync.Mutex
	queue     chan string
	closed    bool
	overflow  bool
	writeErr  error
	done      chan struct{}
	closeOnce sync.Once
}

func newOutbox(conn net.Conn, size int, writeTimeout time.Duration) *outbox {
	return &outbox{
		conn:         conn,
		writeTimeout: writeTimeout,
		queue:        make(chan string, size),
		done:         make(chan struct{}),
	}
}

// WriteLine - enqueues line without blocking.
// Full queue means the client can't keep up, its connection is closed.
func (o *outbox) WriteLine(line string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return errOutboxClosed
	}
	select {
	case o.queue <- line:
		return nil
	default:
		o.overflow = true
		o.conn.Close()
		return errBacklog
	}
}

// maintain - writes queued lines until queue is closed or write fails.
func (o *outbox) maintain() {
	defer close(o.done)
	for line := range o.queue {
		o.conn.SetWriteDeadline(time.Now().Add(o.writeTimeout))
		if err := protocol.WriteLine(o.conn, line); err != nil {
			o.mu.Lock()
			o.writeErr = err
			o.mu.Unlock()
			// release reader blocked on the same connection
			o.conn.Close()
			return
		}
	}
}

// close - stops accepting lines and waits until already queued lines are written.
func (o *outbox) close() {
	o.closeOnce.Do(func() {
		o.mu.Lock()
		o.closed = true
		close(o.queue)
		o.mu.Unlock()
	})
	<-o.done
}

func (o *outbox) overflowed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.overflow
}

func (o *outbox) failure() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.writeErr
}
