package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"
)

// DefaultSendTimeout bounds resolution plus the single write.
const DefaultSendTimeout = 5 * time.Second

// ErrInvalidPort is returned for ports outside 1-65535.
var ErrInvalidPort = errors.New("connection: port out of range")

// Sender delivers enrollment datagrams.
type Sender struct {
	timeout  time.Duration
	resolver *net.Resolver
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithTimeout sets the per-send deadline.
func WithTimeout(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithResolver overrides the DNS resolver.
func WithResolver(r *net.Resolver) SenderOption {
	return func(s *Sender) {
		s.resolver = r
	}
}

// NewSender creates a Sender.
func NewSender(opts ...SenderOption) *Sender {
	s := &Sender{
		timeout:  DefaultSendTimeout,
		resolver: net.DefaultResolver,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send writes payload as one datagram to host:port and returns the
// resolved destination. Broadcast destinations are allowed.
func (s *Sender) Send(ctx context.Context, host string, port int, payload []byte) (netip.AddrPort, error) {
	if port < 1 || port > 65535 {
		return netip.AddrPort{}, fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	dst, err := s.resolve(ctx, host, uint16(port))
	if err != nil {
		return netip.AddrPort{}, err
	}

	network := "udp6"
	if dst.Addr().Is4() {
		network = "udp4"
	}

	lc := net.ListenConfig{Control: broadcastControl}
	pc, err := lc.ListenPacket(ctx, network, ":0")
	if err != nil {
		return dst, fmt.Errorf("open socket: %w", err)
	}
	defer pc.Close()

	deadline, _ := ctx.Deadline()
	if err := pc.SetWriteDeadline(deadline); err != nil {
		return dst, fmt.Errorf("set deadline: %w", err)
	}

	n, err := pc.WriteTo(payload, net.UDPAddrFromAddrPort(dst))
	if err != nil {
		return dst, fmt.Errorf("send to %s: %w", dst, err)
	}
	if n != len(payload) {
		return dst, fmt.Errorf("send to %s: short write %d of %d bytes", dst, n, len(payload))
	}
	return dst, nil
}

func (s *Sender) resolve(ctx context.Context, host string, port uint16) (netip.AddrPort, error) {
	if host == "" {
		return netip.AddrPort{}, errors.New("connection: empty server address")
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return netip.AddrPortFrom(ip.Unmap(), port), nil
	}

	ips, err := s.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(ips) == 0 {
		return netip.AddrPort{}, fmt.Errorf("resolve %s: no addresses", host)
	}
	// Prefer IPv4; broadcast only exists there.
	for _, ip := range ips {
		if ip.Unmap().Is4() {
			return netip.AddrPortFrom(ip.Unmap(), port), nil
		}
	}
	return netip.AddrPortFrom(ips[0], port), nil
}

// JoinHostPort formats a destination for logs.
func JoinHostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
