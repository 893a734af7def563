package client

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/wtask/chatrelay/internal/chat/protocol"
)

// lookupCache - resolved peer addresses with one-shot waiters keyed by username.
type lookupCache struct {
	mu      sync.Mutex
	addrs   map[string]string
	waiters map[string][]chan string
}

func newLookupCache() *lookupCache {
	return &lookupCache{
		addrs:   map[string]string{},
		waiters: map[string][]chan string{},
	}
}

func (lc *lookupCache) get(username string) (string, bool) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	address, ok := lc.addrs[username]
	return address, ok
}

// put - stores address and wakes everyone waiting for it.
func (lc *lookupCache) put(username, address string) {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.addrs[username] = address
	for _, w := range lc.waiters[username] {
		w <- address
	}
	delete(lc.waiters, username)
}

// wait - subscribes to next result for username.
// The channel is closed without value if cache is reset, cancel must be called when waiting is over.
func (lc *lookupCache) wait(username string) (<-chan string, func()) {
	w := make(chan string, 1)
	lc.mu.Lock()
	lc.waiters[username] = append(lc.waiters[username], w)
	lc.mu.Unlock()
	cancel := func() {
		lc.mu.Lock()
		defer lc.mu.Unlock()
		ws := lc.waiters[username]
		for i := range ws {
			if ws[i] == w {
				lc.waiters[username] = append(ws[:i], ws[i+1:]...)
				break
			}
		}
		if len(lc.waiters[username]) == 0 {
			delete(lc.waiters, username)
		}
	}
	return w, cancel
}

func (lc *lookupCache) reset() {
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.addrs = map[string]string{}
	for _, ws := range lc.waiters {
		for _, w := range ws {
			close(w)
		}
	}
	lc.waiters = map[string][]chan string{}
}

// Lookup - asks server for peer address and waits for reply no longer than lookup window.
// Fresh reply wins, cached address is returned when the window elapses without one.
// Unknown peer returns ErrNotFound.
func (c *Client) Lookup(ctx context.Context, username string) (string, error) {
	s, err := c.current()
	if err != nil {
		return "", err
	}
	if username == "" || strings.ContainsAny(username, " \t\r\n") {
		return "", ErrBadUsername
	}
	// subscribe before asking, so the reply can't slip by
	result, cancel := c.cache.wait(username)
	defer cancel()
	if err := c.command(s, protocol.VerbLookup+" "+username); err != nil {
		return "", err
	}

	timer := time.NewTimer(c.lookupWindow)
	defer timer.Stop()
	select {
	case address, ok := <-result:
		if !ok {
			return "", ErrNotLoggedIn
		}
		return address, nil
	case <-timer.C:
		if address, ok := c.cache.get(username); ok {
			return address, nil
		}
		return "", ErrNotFound
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// resolve - address from cache, or from server on cache miss.
func (c *Client) resolve(ctx context.Context, username string) (string, error) {
	if address, ok := c.cache.get(username); ok {
		return address, nil
	}
	return c.Lookup(ctx, username)
}
