package types

import (
	"net/netip"
)

type ScanState uint8

const (
	UNKNOWN ScanState = iota
	OPEN
	CLOSED
	UNREACHABLE
)

func (s ScanState) String() string {
	switch s {
	case OPEN:
		return "open"
	case CLOSED:
		return "closed"
	case UNREACHABLE:
		return "unreachable"
	default:
		return "unknown"
	}
}

type SpeedTier uint8

const (
	FAST SpeedTier = iota
	MEDIUM
	SLOW
)

func (t SpeedTier) String() string {
	switch t {
	case MEDIUM:
		return "medium"
	case SLOW:
		return "slow"
	default:
		return "fast"
	}
}

// Outcome is the classified result of probing a single port.
// Service is only set for OPEN ports.
type Outcome struct {
	Port    uint16
	State   ScanState
	Service string
}

type PortService struct {
	Port    uint16
	Service string
}

type ScanTarget struct {
	Addr    netip.Addr
	MaxPort int
	Workers int
}
