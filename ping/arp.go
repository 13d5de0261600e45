package ping

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/jackpal/gateway"
	"github.com/mdlayher/arp"
	"go.uber.org/zap"
)

// ARPChecker resolves the target's MAC address when it shares a link with
// us. For off-link targets only the first hop can be checked, so the default
// gateway is resolved instead. Needs raw socket privileges.
type ARPChecker struct {
	Timeout time.Duration
	logger  *zap.Logger

	discoverGateway func() (net.IP, error)
	interfaces      func() ([]candidate, error)
}

func NewARP(timeout time.Duration, logger *zap.Logger) *ARPChecker {
	return &ARPChecker{
		Timeout:         timeout,
		logger:          logger,
		discoverGateway: gateway.DiscoverGateway,
		interfaces:      localInterfaces,
	}
}

// candidate is an up, non-loopback interface and the prefixes assigned to it.
type candidate struct {
	iface    net.Interface
	prefixes []netip.Prefix
}

func (c *ARPChecker) Check(ctx context.Context, target netip.Addr) error {
	if target.IsLoopback() {
		return nil
	}

	ifaces, err := c.interfaces()
	if err != nil {
		return fmt.Errorf("%w: list interfaces: %v", ErrUnavailable, err)
	}

	hop := target
	iface, ok := matchInterface(target, ifaces)
	if !ok {
		gw, err := c.discoverGateway()
		if err != nil {
			return fmt.Errorf("%w: discover gateway: %v", ErrUnavailable, err)
		}
		gwAddr, ok := netip.AddrFromSlice(gw.To4())
		if !ok {
			return fmt.Errorf("%w: gateway %v is not IPv4", ErrUnavailable, gw)
		}
		if iface, ok = matchInterface(gwAddr, ifaces); !ok {
			return fmt.Errorf("%w: no interface reaches gateway %s", ErrUnavailable, gwAddr)
		}
		hop = gwAddr
		c.logger.Debug("target is off-link, checking next hop",
			zap.Stringer("target", target), zap.Stringer("gateway", gwAddr))
	}

	if !CanOpenRawSocket() {
		return fmt.Errorf("%w: arp needs raw socket privileges", ErrUnavailable)
	}
	client, err := arp.Dial(&iface)
	if err != nil {
		return fmt.Errorf("%w: dial arp on %s: %v", ErrUnavailable, iface.Name, err)
	}
	defer client.Close()

	if err := client.SetDeadline(deadline(ctx, c.Timeout)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = client.SetDeadline(time.Now())
	})
	defer stop()

	mac, err := client.Resolve(hop)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var nErr net.Error
		if errors.As(err, &nErr) && nErr.Timeout() {
			return ErrUnreachable
		}
		return fmt.Errorf("%w: resolve %s: %v", ErrUnavailable, hop, err)
	}
	c.logger.Debug("arp reply", zap.Stringer("hop", hop), zap.Stringer("mac", mac))
	return nil
}

func matchInterface(target netip.Addr, candidates []candidate) (net.Interface, bool) {
	for _, c := range candidates {
		for _, p := range c.prefixes {
			if p.Contains(target) {
				return c.iface, true
			}
		}
	}
	return net.Interface{}, false
}

func localInterfaces() ([]candidate, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var out []candidate
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		c := candidate{iface: iface}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			addr, _ := netip.AddrFromSlice(ipNet.IP.To4())
			ones, _ := ipNet.Mask.Size()
			c.prefixes = append(c.prefixes, netip.PrefixFrom(addr, ones).Masked())
		}
		if len(c.prefixes) > 0 {
			out = append(out, c)
		}
	}
	return out, nil
}
