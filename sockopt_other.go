//go:build !unix

package taskloop

import "syscall"

// reuseAddrControl is a no-op where the socket option is unavailable.
func reuseAddrControl(network, address string, c syscall.RawConn) error {
	return nil
}
