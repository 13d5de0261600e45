package scan

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pdash/services"
	"pdash/types"
	"pdash/utils"
)

const DefaultTimeout = 250 * time.Millisecond

// Prober classifies a single port on target. Implementations must not block
// past their own timeout or ctx, and must never panic.
type Prober interface {
	Probe(ctx context.Context, target netip.Addr, port uint16) types.Outcome
}

// TCPProber performs a full connect() handshake and closes the connection
// straight away. No data is exchanged.
type TCPProber struct {
	Timeout  time.Duration
	Services services.Table
	Logger   *zap.Logger
}

func NewTCPProber(timeout time.Duration, table services.Table, logger *zap.Logger) *TCPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if table == nil {
		table = services.Default
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TCPProber{Timeout: timeout, Services: table, Logger: logger}
}

func (p *TCPProber) Probe(ctx context.Context, target netip.Addr, port uint16) types.Outcome {
	addr := net.JoinHostPort(target.String(), strconv.FormatUint(uint64(port), 10))
	dialer := net.Dialer{Timeout: p.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp4", addr)
	if err == nil {
		_ = conn.Close()
		return types.Outcome{Port: port, State: types.OPEN, Service: p.Services.Lookup(port)}
	}

	state := classify(err)
	if ce := p.Logger.Check(zap.DebugLevel, "probe failed"); ce != nil {
		ce.Write(zap.String("addr", addr), zap.Stringer("state", state), zap.Error(err))
	}
	return types.Outcome{Port: port, State: state}
}

// classify maps a dial error to a port state. Only an explicit refusal (RST)
// proves the port closed; everything else means we could not tell.
func classify(err error) types.ScanState {
	if err == nil {
		return types.OPEN
	}
	var nErr net.Error
	if errors.As(err, &nErr) && nErr.Timeout() {
		return types.UNREACHABLE
	}
	if utils.IsConnRefused(err) {
		return types.CLOSED
	}
	return types.UNREACHABLE
}
