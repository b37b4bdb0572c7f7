// Package url hands out free loopback addresses to tests that start real listeners.
package url

import (
	"net"
	"sync"
	"testing"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/pkg/errors"
)

const (
	_allocAttempts = 10
	_allocBackoff  = 100 * time.Millisecond
)

var _loopback = &allocator{
	host:  "127.0.0.1",
	given: mapset.NewThreadUnsafeSet[string](),
}

// allocator remembers every address it has given out, so that concurrent tests in one process
// never share a port even if the kernel hands the same ephemeral port out again.
type allocator struct {
	host string

	mu    sync.Mutex
	given mapset.Set[string]
}

// AllocAddr returns a "host:port" on the loopback interface that nothing listens on.
// An address is never returned twice in a process.
func AllocAddr(tb testing.TB) string {
	tb.Helper()

	backoff := _allocBackoff
	for i := 0; i < _allocAttempts; i++ {
		addr, err := _loopback.next()
		if err != nil {
			tb.Fatalf("allocate test address: %v", err)
		}
		if _loopback.claim(tb, addr) {
			return addr
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	tb.Fatalf("no free address on %s after %d attempts", _loopback.host, _allocAttempts)
	return ""
}

// next asks the kernel for an unused port and gives it back at once.
func (a *allocator) next() (string, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(a.host, "0"))
	if err != nil {
		return "", errors.Wrap(err, "listen")
	}
	addr := l.Addr().String()
	if err := l.Close(); err != nil {
		return "", errors.Wrapf(err, "close listener on %s", addr)
	}
	return addr, nil
}

// claim records addr as given out unless it was given out before or is still in use.
func (a *allocator) claim(tb testing.TB, addr string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.given.Contains(addr) || !Released(tb, addr) {
		return false
	}
	a.given.Add(addr)
	return true
}
