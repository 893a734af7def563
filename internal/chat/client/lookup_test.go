package client

import "testing"

func TestLookupCache(test *testing.T) {
	lc := newLookupCache()
	first, cancelFirst := lc.wait("bob")
	second, cancelSecond := lc.wait("bob")
	defer cancelFirst()
	defer cancelSecond()

	lc.put("bob", "127.0.0.1:5000")
	for _, w := range []<-chan string{first, second} {
		if address := <-w; address != "127.0.0.1:5000" {
			test.Error("unexpected address", address)
		}
	}
	if address, ok := lc.get("bob"); !ok || address != "127.0.0.1:5000" {
		test.Error("address is not cached")
	}

	late, cancelLate := lc.wait("alice")
	lc.reset()
	if _, ok := <-late; ok {
		test.Error("waiter is not released by reset")
	}
	cancelLate()
	if _, ok := lc.get("bob"); ok {
		test.Error("cache is not cleared by reset")
	}

	cancelled, cancel := lc.wait("carol")
	cancel()
	lc.put("carol", "127.0.0.1:5001")
	select {
	case <-cancelled:
		test.Error("cancelled waiter was notified")
	default:
	}
	if len(lc.waiters) != 0 {
		test.Error("waiters are left", lc.waiters)
	}
}
