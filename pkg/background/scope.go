package background

import (
	"context"
	"sync"
	"time"
)

// Scope - group of goroutines sharing one cancellable context.
type Scope struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu sync.Mutex
	wg sync.WaitGroup
}

// NewScope - builds concurrency scope derived from parent context.
// Returned cancel func stops the scope context and waits until every member has returned.
func NewScope(parent context.Context) (scope *Scope, cancel func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancelCtx := context.WithCancel(parent)
	s := &Scope{ctx: ctx, cancel: cancelCtx}
	return s, func() {
		s.stop()
		s.wg.Wait()
	}
}

// Context - returns scope context, it is done after cancel.
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Go - launches task as a member of scope.
// Returns false without launching when scope is already cancelled.
func (s *Scope) Go(task func(ctx context.Context)) bool {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return false
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		task(s.ctx)
	}()
	return true
}

// Shutdown - cancels scope and waits for members no longer than timeout.
// Returns duration of time spent for waiting.
func (s *Scope) Shutdown(timeout time.Duration) time.Duration {
	from := time.Now()
	s.stop()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
	return time.Since(from)
}

// stop - cancels context under mu, so no member can be added after it.
func (s *Scope) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancel()
}
