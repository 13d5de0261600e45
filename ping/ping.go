// Package ping decides whether a target is worth scanning at all.
//
// A Checker returns nil when the host answered, ErrUnreachable when it did
// not, and an error wrapping ErrUnavailable when the method itself could not
// run (missing privileges, no route, unsupported platform).
package ping

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUnreachable = errors.New("host unreachable")
	ErrUnavailable = errors.New("reachability check unavailable")
)

const DefaultTimeout = 2 * time.Second

const (
	MethodAuto = "auto"
	MethodICMP = "icmp"
	MethodARP  = "arp"
	MethodTCP  = "tcp"
	MethodNone = "none"
)

var Methods = []string{MethodAuto, MethodICMP, MethodARP, MethodTCP, MethodNone}

type Checker interface {
	Check(ctx context.Context, target netip.Addr) error
}

// New returns the Checker for method.
func New(method string, timeout time.Duration, logger *zap.Logger) (Checker, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "ping"), zap.String("method", method))

	switch method {
	case MethodAuto, "":
		return &autoChecker{
			primary:  NewICMP(timeout, logger),
			fallback: NewTCP(timeout, logger),
			logger:   logger,
		}, nil
	case MethodICMP:
		return NewICMP(timeout, logger), nil
	case MethodARP:
		return NewARP(timeout, logger), nil
	case MethodTCP:
		return NewTCP(timeout, logger), nil
	case MethodNone:
		return none{}, nil
	default:
		return nil, fmt.Errorf("unknown ping method %q", method)
	}
}

type none struct{}

func (none) Check(context.Context, netip.Addr) error { return nil }

// autoChecker prefers ICMP and falls back when ICMP sockets are not allowed.
type autoChecker struct {
	primary  Checker
	fallback Checker
	logger   *zap.Logger
}

func (a *autoChecker) Check(ctx context.Context, target netip.Addr) error {
	err := a.primary.Check(ctx, target)
	if !errors.Is(err, ErrUnavailable) {
		return err
	}
	a.logger.Debug("primary check unavailable, falling back", zap.Error(err))
	return a.fallback.Check(ctx, target)
}

// deadline returns the earlier of now+timeout and ctx's deadline.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		return cd
	}
	return d
}
