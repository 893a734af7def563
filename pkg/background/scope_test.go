package background

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func producer(id string, data chan<- int) func(ctx context.Context) {
	return func(ctx context.Context) {
		for i := 0; ; i++ {
			select {
			case data <- i:
			case <-ctx.Done():
				fmt.Println(id, "done")
				return
			}
		}
	}
}

func consumer(id string, data <-chan int) func(ctx context.Context) {
	return func(ctx context.Context) {
		for {
			select {
			case _, ok := <-data:
				if !ok {
					fmt.Println(id, "exited on closed data channel")
					return
				}
			case <-ctx.Done():
				fmt.Println(id, "done")
				return
			}
		}
	}
}

func ExampleScope() {
	data1, data2 := make(chan int), make(chan int)

	write1, cancelWrite1 := NewScope(context.Background())
	read1, cancelRead1 := NewScope(context.Background())
	write2, cancelWrite2 := NewScope(context.Background())

	write1.Go(producer("DATA-1 *PRODUCER*", data1))
	read1.Go(consumer("DATA-1 *CONSUMER*", data1))
	write2.Go(producer("DATA-2 *PRODUCER*", data2)) // blocked due to no consumer for data2

	time.Sleep(50 * time.Millisecond)

	cancelWrite2()
	cancelWrite1()
	cancelRead1()

	// Output:
	// DATA-2 *PRODUCER* done
	// DATA-1 *PRODUCER* done
	// DATA-1 *CONSUMER* done
}

func ExampleScope_expiredOrActive() {
	scope1, cancel1 := NewScope(context.Background())
	defer cancel1()
	scope2, cancel2 := NewScope(context.Background())
	cancel2()
	fmt.Println(scope1.Context().Err() != nil, scope2.Context().Err() != nil)
	fmt.Println(scope2.Go(func(context.Context) {}))

	// Output:
	// false true
	// false
}

func TestScope_Shutdown(test *testing.T) {
	scope, _ := NewScope(context.Background())
	stuck := make(chan struct{})
	defer close(stuck)
	scope.Go(func(ctx context.Context) {
		<-stuck
	})
	spent := scope.Shutdown(20 * time.Millisecond)
	if spent < 20*time.Millisecond {
		test.Error("Shutdown returned before timeout while member is still running:", spent)
	}
	if scope.Context().Err() == nil {
		test.Error("Scope context is active after Shutdown")
	}
}

func TestNewPool(test *testing.T) {
	scope, cancel := NewScope(context.Background())
	defer cancel()
	cases := []struct {
		scope *Scope
		size  int
		ok    bool
	}{
		{nil, 1, false},
		{scope, 0, false},
		{scope, -1, false},
		{scope, 3, true},
	}
	for _, c := range cases {
		p, err := NewPool(c.scope, c.size)
		if (err == nil) != c.ok {
			test.Errorf("NewPool(%v, %d): unexpected error %v", c.scope != nil, c.size, err)
		}
		if err == nil && p.Size() != c.size {
			test.Errorf("NewPool: expected size %d, got %d", c.size, p.Size())
		}
	}
}

func TestPool_TryGo(test *testing.T) {
	scope, cancel := NewScope(context.Background())
	pool, err := NewPool(scope, 2)
	if err != nil {
		test.Fatal("NewPool:", err)
	}

	release := make(chan struct{})
	started := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		if !pool.TryGo(func(ctx context.Context) {
			started <- struct{}{}
			<-release
		}) {
			test.Fatal("TryGo refused task while pool has free slots")
		}
	}
	<-started
	<-started

	if pool.TryGo(func(context.Context) {}) {
		test.Error("TryGo admitted task while pool is full")
	}

	close(release)
	var ran int32
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if pool.TryGo(func(context.Context) { atomic.AddInt32(&ran, 1) }) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	if atomic.LoadInt32(&ran) != 1 {
		test.Error("TryGo did not admit task after slots were released")
	}
	if pool.TryGo(func(context.Context) {}) {
		test.Error("TryGo admitted task after scope was cancelled")
	}
}
