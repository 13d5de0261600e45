package ping

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"pdash/utils"
)

// DefaultTCPPorts are tried when ICMP is not an option. Most hosts either
// listen on or actively refuse at least one of them.
var DefaultTCPPorts = []uint16{80, 443, 22, 445, 3389, 8080}

var errAlive = errors.New("alive")

// TCPChecker treats any handshake or RST on a handful of common ports as
// proof of life.
type TCPChecker struct {
	Timeout time.Duration
	Ports   []uint16
	logger  *zap.Logger
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)
}

func NewTCP(timeout time.Duration, logger *zap.Logger) *TCPChecker {
	c := &TCPChecker{Timeout: timeout, Ports: DefaultTCPPorts, logger: logger}
	c.dial = (&net.Dialer{Timeout: timeout}).DialContext
	return c
}

func (c *TCPChecker) Check(ctx context.Context, target netip.Addr) error {
	g, gctx := errgroup.WithContext(ctx)
	dial := c.dial
	if dial == nil {
		dial = (&net.Dialer{Timeout: c.Timeout}).DialContext
	}
	logger := c.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for _, port := range c.Ports {
		g.Go(func() error {
			addr := net.JoinHostPort(target.String(), strconv.Itoa(int(port)))
			conn, err := dial(gctx, "tcp4", addr)
			if err == nil {
				_ = conn.Close()
				logger.Debug("tcp ping accepted", zap.String("addr", addr))
				return errAlive
			}
			if utils.IsConnRefused(err) {
				logger.Debug("tcp ping refused", zap.String("addr", addr))
				return errAlive
			}
			return nil
		})
	}

	err := g.Wait()
	switch {
	case errors.Is(err, errAlive):
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return ErrUnreachable
	}
}
