//go:build !unix

package utils

import (
	"errors"
	"syscall"
)

func IsConnRefused(err error) bool {
	return errors.Is(err, syscall.ECONNREFUSED)
}

func IsNoRoute(err error) bool {
	return errors.Is(err, syscall.EHOSTUNREACH) || errors.Is(err, syscall.ENETUNREACH)
}
