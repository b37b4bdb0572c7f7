//go:build !linux

package url

import (
	"net"
	"testing"
)

// Released reports whether addr can be listened on.
func Released(_ testing.TB, addr string) bool {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}
