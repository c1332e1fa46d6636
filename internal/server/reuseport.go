package server

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlReusePort is a net.ListenConfig.Control callback that sets
// SO_REUSEPORT on the raw socket before bind, letting Workers independent
// sockets share the same interface/port pair so the kernel load-balances
// inbound datagrams across read loops.
func controlReusePort(_, _ string, c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
