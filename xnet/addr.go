// Package xnet models console network addresses and the translation between
// their offline (LAN) and online (public) forms.
package xnet

import (
	"errors"
	"fmt"
	"net/netip"
)

// OnlinePort is the port advertised in every online address.
const OnlinePort uint16 = 9103

var (
	// ErrNotIPv4 indicates a string that is not a dotted-quad address.
	ErrNotIPv4 = errors.New("xnet: not an IPv4 address")

	// ErrUnknownAddress indicates the all-zero sentinel where a routable
	// address is required.
	ErrUnknownAddress = errors.New("xnet: address is unknown")
)

// Unknown reports whether a is the "unknown" sentinel: unset or 0.0.0.0.
func Unknown(a netip.Addr) bool {
	return !a.IsValid() || a.IsUnspecified()
}

// PeerAddress is an IPv4 address and port.
type PeerAddress struct {
	IP   netip.Addr
	Port uint16
}

// Unknown reports whether the address part is the unknown sentinel.
func (p PeerAddress) Unknown() bool {
	return Unknown(p.IP)
}

func (p PeerAddress) String() string {
	return netip.AddrPortFrom(p.IP, p.Port).String()
}

// XnAddr is a console's address descriptor: the LAN address, the public
// address pair, and the opaque blocks that travel with them.
type XnAddr struct {
	Offline    netip.Addr
	Online     netip.Addr
	OnlinePort uint16
	MAC        [6]byte
	OnlineKey  [20]byte
}

// OnlineAddress returns the public address and port of x.
func (x XnAddr) OnlineAddress() PeerAddress {
	return PeerAddress{IP: x.Online, Port: x.OnlinePort}
}

// ParseIPv4 parses a dotted-quad string.
func ParseIPv4(s string) (netip.Addr, error) {
	ip, err := netip.ParseAddr(s)
	if err != nil || !ip.Is4() {
		return netip.Addr{}, fmt.Errorf("%w: %q", ErrNotIPv4, s)
	}
	return ip, nil
}

// RedirectTarget is the single public address substituted for peers whose
// LAN address is unknown. It is immutable once built.
type RedirectTarget struct {
	addr PeerAddress
}

// NewRedirectTarget validates ip and returns a target on the given port.
func NewRedirectTarget(ip netip.Addr, port uint16) (RedirectTarget, error) {
	ip = ip.Unmap()
	if Unknown(ip) {
		return RedirectTarget{}, ErrUnknownAddress
	}
	if !ip.Is4() {
		return RedirectTarget{}, fmt.Errorf("%w: %s", ErrNotIPv4, ip)
	}
	return RedirectTarget{addr: PeerAddress{IP: ip, Port: port}}, nil
}

// ParseRedirectTarget parses a dotted quad and pairs it with OnlinePort.
func ParseRedirectTarget(s string) (RedirectTarget, error) {
	ip, err := ParseIPv4(s)
	if err != nil {
		return RedirectTarget{}, err
	}
	return NewRedirectTarget(ip, OnlinePort)
}

// Address returns the redirect address and port.
func (r RedirectTarget) Address() PeerAddress { return r.addr }

// IP returns the redirect address.
func (r RedirectTarget) IP() netip.Addr { return r.addr.IP }

// IsZero reports whether r was never set.
func (r RedirectTarget) IsZero() bool { return !r.addr.IP.IsValid() }

func (r RedirectTarget) String() string { return r.addr.String() }
