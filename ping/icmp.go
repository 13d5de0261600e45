package ping

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"
	"go.uber.org/zap"
	"golang.org/x/net/icmp"

	"pdash/utils"
)

var echoPayload = []byte("p-dash reachability probe")

// ICMPChecker sends a single echo request and waits for the matching reply.
// Without raw socket privileges it uses an unprivileged datagram ICMP socket,
// which Linux only allows when net.ipv4.ping_group_range covers our gid.
type ICMPChecker struct {
	Timeout    time.Duration
	Privileged bool
	logger     *zap.Logger
}

func NewICMP(timeout time.Duration, logger *zap.Logger) *ICMPChecker {
	return &ICMPChecker{Timeout: timeout, Privileged: CanOpenRawSocket(), logger: logger}
}

func (c *ICMPChecker) Check(ctx context.Context, target netip.Addr) error {
	network := "udp4"
	if c.Privileged {
		network = "ip4:icmp"
	}
	conn, err := icmp.ListenPacket(network, "0.0.0.0")
	if err != nil {
		return fmt.Errorf("%w: open %s socket: %v", ErrUnavailable, network, err)
	}
	defer conn.Close()

	if pc := conn.IPv4PacketConn(); pc != nil {
		_ = pc.SetTTL(64)
	}

	id := uint16(os.Getpid() & 0xffff)
	seq := uint16(rand.UintN(1 << 16))
	msg, err := buildEchoRequest(id, seq, echoPayload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	_ = conn.SetDeadline(deadline(ctx, c.Timeout))
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	var dst net.Addr = &net.IPAddr{IP: target.AsSlice()}
	if !c.Privileged {
		dst = &net.UDPAddr{IP: target.AsSlice()}
	}
	if _, err := conn.WriteTo(msg, dst); err != nil {
		if utils.IsNoRoute(err) {
			return fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
		return fmt.Errorf("%w: send echo: %v", ErrUnavailable, err)
	}

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var nErr net.Error
			if errors.As(err, &nErr) && nErr.Timeout() {
				return ErrUnreachable
			}
			return fmt.Errorf("%w: read reply: %v", ErrUnavailable, err)
		}
		if peerAddr(peer) != target {
			continue
		}
		rid, rseq, ok := parseEchoReply(buf[:n])
		if !ok || rseq != seq {
			continue
		}
		// datagram sockets get their id rewritten by the kernel
		if c.Privileged && rid != id {
			continue
		}
		c.logger.Debug("echo reply", zap.Stringer("target", target), zap.Uint16("seq", rseq))
		return nil
	}
}

func buildEchoRequest(id, seq uint16, payload []byte) ([]byte, error) {
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	echo := &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
		Id:       id,
		Seq:      seq,
	}
	if err := gopacket.SerializeLayers(buf, opts, echo, gopacket.Payload(payload)); err != nil {
		return nil, fmt.Errorf("serialize echo request: %w", err)
	}
	return buf.Bytes(), nil
}

// parseEchoReply decodes an ICMPv4 message with the IP header already
// stripped. ok is false for anything but an echo reply.
func parseEchoReply(b []byte) (id, seq uint16, ok bool) {
	packet := gopacket.NewPacket(b, layers.LayerTypeICMPv4, gopacket.NoCopy)
	echo, isICMP := packet.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
	if !isICMP || echo.TypeCode.Type() != layers.ICMPv4TypeEchoReply {
		return 0, 0, false
	}
	return echo.Id, echo.Seq, true
}

func peerAddr(a net.Addr) netip.Addr {
	var ip net.IP
	switch v := a.(type) {
	case *net.IPAddr:
		ip = v.IP
	case *net.UDPAddr:
		ip = v.IP
	default:
		return netip.Addr{}
	}
	addr, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}
	}
	return addr.Unmap()
}
