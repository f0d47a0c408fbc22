//go:build unix

package taskloop

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// reuseAddrControl marks listening sockets SO_REUSEADDR so rebinding after
// a restart does not trip over lingering TIME_WAIT entries.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	var serr error
	if err := c.Control(func(fd uintptr) {
		serr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}); err != nil {
		return err
	}
	return serr
}
