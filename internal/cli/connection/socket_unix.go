//go:build unix

package connection

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// broadcastControl enables SO_BROADCAST on IPv4 sockets so that sends to
// 255.255.255.255 or a subnet broadcast address are not refused.
func broadcastControl(network, _ string, c syscall.RawConn) error {
	if network != "udp4" {
		return nil
	}
	var serr error
	err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
	})
	if err != nil {
		return err
	}
	return serr
}
