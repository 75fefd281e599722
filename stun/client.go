package stun

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/pion/logging"
)

// DefaultTimeout bounds the wait for a binding response.
const DefaultTimeout = 4000 * time.Millisecond

// maxResponseLen is the receive buffer size. Larger datagrams are truncated
// by the kernel and rejected by the parser.
const maxResponseLen = 1000

// Client discovers the host's public IPv4 address with a single binding
// exchange. It never retransmits: the first failure is final.
type Client struct {
	// Timeout bounds the wait for a response. An earlier ctx deadline wins.
	Timeout time.Duration

	// LocalPort is the UDP port to bind. Zero picks an ephemeral port.
	LocalPort int

	// VerifyTransaction drops datagrams that do not come from the server or
	// do not echo Signature. With it off any binding response is accepted.
	VerifyTransaction bool

	// Resolver looks up the server host. Nil means net.DefaultResolver.
	Resolver *net.Resolver

	// Logger receives progress of each exchange stage.
	Logger logging.LeveledLogger
}

// NewClient returns a Client with the defaults used by activation.
func NewClient() *Client {
	return &Client{
		Timeout:           DefaultTimeout,
		VerifyTransaction: true,
		Logger:            logging.NewDefaultLoggerFactory().NewLogger("stun"),
	}
}

// Discover sends the binding request to host:port and returns the address
// the server saw the request come from.
func (c *Client) Discover(ctx context.Context, host string, port uint16) (MappedAddress, error) {
	c.log().Debugf("resolving STUN server %s", host)
	server, err := c.resolve(ctx, host, port)
	if err != nil {
		return MappedAddress{}, &DiscoveryError{Stage: StageResolve, Err: err}
	}

	c.log().Debugf("binding STUN socket on port %d", c.LocalPort)
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: c.LocalPort})
	if err != nil {
		return MappedAddress{}, &DiscoveryError{Stage: StageBind, Err: err}
	}
	defer conn.Close()

	return c.DiscoverConn(ctx, conn, server)
}

// DiscoverConn performs the exchange over an already bound socket.
// The caller keeps ownership of conn.
func (c *Client) DiscoverConn(ctx context.Context, conn *net.UDPConn, server netip.AddrPort) (MappedAddress, error) {
	server = netip.AddrPortFrom(server.Addr().Unmap(), server.Port())

	deadline := time.Now().Add(c.timeout())
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return MappedAddress{}, &DiscoveryError{Stage: StageConfigure, Err: err}
	}
	// Cancellation unblocks the read by moving the deadline to now.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := ctx.Err(); err != nil {
		return MappedAddress{}, &DiscoveryError{Stage: StageSend, Err: err}
	}

	c.log().Debugf("sending binding request to %s", server)
	if _, err := conn.WriteToUDPAddrPort(BindingRequest(), server); err != nil {
		return MappedAddress{}, &DiscoveryError{Stage: StageSend, Err: err}
	}

	buf := make([]byte, maxResponseLen)
	for {
		n, src, err := conn.ReadFromUDPAddrPort(buf)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			} else if ne, ok := err.(net.Error); ok && ne.Timeout() {
				err = ErrTimeout
			}
			return MappedAddress{}, &DiscoveryError{Stage: StageReceive, Err: err}
		}

		pkt := buf[:n]
		if c.VerifyTransaction && !matches(pkt, src, server) {
			c.log().Debugf("ignoring %d byte datagram from %s", n, src)
			continue
		}

		c.log().Debug("parsing binding response")
		addr, err := ParseResponse(pkt)
		if err != nil {
			return MappedAddress{}, &DiscoveryError{Stage: StageParse, Err: err}
		}
		c.log().Infof("STUN mapped address %s", addr)
		return addr, nil
	}
}

// matches reports whether pkt came from server and echoes Signature.
func matches(pkt []byte, src, server netip.AddrPort) bool {
	if src.Addr().Unmap() != server.Addr() || src.Port() != server.Port() {
		return false
	}
	if len(pkt) < HeaderLen {
		return false
	}
	return bytes.Equal(pkt[4:HeaderLen], Signature[:])
}

func (c *Client) resolve(ctx context.Context, host string, port uint16) (netip.AddrPort, error) {
	if ip, err := netip.ParseAddr(host); err == nil {
		if !ip.Unmap().Is4() {
			return netip.AddrPort{}, ErrNoIPv4
		}
		return netip.AddrPortFrom(ip.Unmap(), port), nil
	}

	r := c.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	ips, err := r.LookupNetIP(ctx, "ip4", host)
	if err != nil {
		return netip.AddrPort{}, err
	}
	for _, ip := range ips {
		if ip.Unmap().Is4() {
			return netip.AddrPortFrom(ip.Unmap(), port), nil
		}
	}
	return netip.AddrPort{}, fmt.Errorf("%s: %w", host, ErrNoIPv4)
}

func (c *Client) log() logging.LeveledLogger {
	if c.Logger == nil {
		c.Logger = logging.NewDefaultLoggerFactory().NewLogger("stun")
	}
	return c.Logger
}

func (c *Client) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}
