package background

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Pool - bounded number of workers running inside a Scope.
// A task is refused, not queued, when every slot is busy.
type Pool struct {
	scope *Scope
	size  int
	slots *semaphore.Weighted
}

// NewPool - builds pool of given size over scope.
func NewPool(scope *Scope, size int) (*Pool, error) {
	if scope == nil {
		return nil, fmt.Errorf("background.NewPool: scope is nil")
	}
	if size <= 0 {
		return nil, fmt.Errorf("background.NewPool: invalid size (%d)", size)
	}
	return &Pool{
		scope: scope,
		size:  size,
		slots: semaphore.NewWeighted(int64(size)),
	}, nil
}

// Size - returns max number of concurrent workers.
func (p *Pool) Size() int {
	return p.size
}

// TryGo - launches task if a free slot exists and scope still active.
// Returns false if the task was not admitted.
func (p *Pool) TryGo(task func(ctx context.Context)) bool {
	if !p.slots.TryAcquire(1) {
		return false
	}
	launched := p.scope.Go(func(ctx context.Context) {
		defer p.slots.Release(1)
		task(ctx)
	})
	if !launched {
		p.slots.Release(1)
	}
	return launched
}
