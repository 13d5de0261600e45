//go:build !unix

package ping

func CanOpenRawSocket() bool {
	return false
}
