//go:build unix

package utils

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsConnRefused reports whether err carries ECONNREFUSED, i.e. the peer
// answered the SYN with a RST.
func IsConnRefused(err error) bool {
	return errors.Is(err, unix.ECONNREFUSED)
}

// IsNoRoute reports whether err says the host or its network cannot be reached.
func IsNoRoute(err error) bool {
	return errors.Is(err, unix.EHOSTUNREACH) || errors.Is(err, unix.ENETUNREACH)
}
