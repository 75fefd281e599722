package stun

import (
	"net/netip"
)

// MappedAddress is a decoded MAPPED-ADDRESS.
type MappedAddress struct {
	IP   netip.Addr
	Port uint16
}

// String returns the address in "ip:port" form.
func (m MappedAddress) String() string {
	return netip.AddrPortFrom(m.IP, m.Port).String()
}

// DecodeMappedAddress decodes an IPv4 MAPPED-ADDRESS attribute.
//
// Format:
//
//	0: reserved
//	1: family (0x01 IPv4)
//	2-3: port
//	4-7: address
//
// Other families report ok=false; a value too short for its family is
// ErrTruncated.
func DecodeMappedAddress(a Attribute) (addr MappedAddress, ok bool, err error) {
	r := newReader(a.Value)
	head, err := r.next(2)
	if err != nil {
		return MappedAddress{}, false, err
	}
	if head[1] != familyIPv4 {
		return MappedAddress{}, false, nil
	}
	port, err := r.u16()
	if err != nil {
		return MappedAddress{}, false, err
	}
	ip, err := r.next(4)
	if err != nil {
		return MappedAddress{}, false, err
	}
	return MappedAddress{IP: netip.AddrFrom4([4]byte(ip)), Port: port}, true, nil
}

// buildMappedAddressAttr encodes MAPPED-ADDRESS for ap.
func buildMappedAddressAttr(ap netip.AddrPort) Attribute {
	ip := ap.Addr().Unmap()
	fam := familyIPv4
	if !ip.Is4() {
		fam = familyIPv6
	}
	raw := ip.AsSlice()

	v := make([]byte, 4+len(raw))
	v[1] = fam
	putU16(v[2:4], ap.Port())
	copy(v[4:], raw)
	return Attribute{Type: AttrMappedAddress, Value: v}
}

