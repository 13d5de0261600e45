//go:build unix

package ping

import "golang.org/x/sys/unix"

// CanOpenRawSocket reports whether the process may open raw sockets.
func CanOpenRawSocket() bool {
	return unix.Geteuid() == 0
}
