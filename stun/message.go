package stun

import (
	"fmt"
)

// HeaderLen is the legacy STUN header size in bytes.
const HeaderLen = 20

const attrHeaderLen = 4

// Message represents a legacy STUN message (header + attributes).
type Message struct {
	Type          uint16
	Length        uint16 // computed from Attributes when marshaling
	TransactionID TransactionID
	Attributes    []Attribute
}

// Attribute represents a single STUN TLV attribute.
type Attribute struct {
	Type  uint16
	Value []byte
}

// NewBindingRequest creates the binding request sent by Client.
func NewBindingRequest() *Message {
	return &Message{
		Type:          TypeBindingRequest,
		TransactionID: Signature,
	}
}

// BindingRequest returns the fixed 20-byte binding request datagram.
func BindingRequest() []byte {
	return NewBindingRequest().Marshal()
}

// Marshal serializes the message into a byte slice.
func (m *Message) Marshal() []byte {
	attrLen := 0
	for _, a := range m.Attributes {
		attrLen += attrHeaderLen + padded(len(a.Value))
	}
	m.Length = uint16(attrLen)

	out := make([]byte, HeaderLen+attrLen)

	putU16(out[0:2], m.Type)
	putU16(out[2:4], m.Length)
	copy(out[4:20], m.TransactionID[:])

	off := HeaderLen
	for _, a := range m.Attributes {
		putU16(out[off:off+2], a.Type)
		putU16(out[off+2:off+4], uint16(len(a.Value)))
		copy(out[off+4:], a.Value)
		// padding bytes are already zero
		off += attrHeaderLen + padded(len(a.Value))
	}

	return out
}

// Parse parses a raw datagram into a message.
//
// The header length field is not trusted: attributes are read from the
// rest of the datagram, the way legacy servers are observed to send them.
// A missing trailing pad is tolerated, a short header or attribute is not.
func Parse(pkt []byte) (*Message, error) {
	r := newReader(pkt)

	typ, err := r.u16()
	if err != nil {
		return nil, err
	}
	length, err := r.u16()
	if err != nil {
		return nil, err
	}
	id, err := r.next(len(TransactionID{}))
	if err != nil {
		return nil, err
	}

	msg := &Message{Type: typ, Length: length}
	copy(msg.TransactionID[:], id)

	for r.remaining() > 0 {
		a, err := readAttribute(r)
		if err != nil {
			return nil, err
		}
		msg.Attributes = append(msg.Attributes, a)
	}
	return msg, nil
}

func readAttribute(r *reader) (Attribute, error) {
	typ, err := r.u16()
	if err != nil {
		return Attribute{}, err
	}
	vlen, err := r.u16()
	if err != nil {
		return Attribute{}, err
	}
	v, err := r.next(int(vlen))
	if err != nil {
		return Attribute{}, fmt.Errorf("attribute 0x%04x: %w", typ, err)
	}
	r.skipUpTo(padded(int(vlen)) - int(vlen))

	val := make([]byte, len(v))
	copy(val, v)
	return Attribute{Type: typ, Value: val}, nil
}

// ParseResponse extracts the mapped address from a binding response.
//
// Only the message type gates parsing: anything other than a binding
// response yields ErrNotBindingResponse without looking further. Only the
// first attribute after the header is read. It must be an IPv4
// MAPPED-ADDRESS, otherwise nothing is learned. Bytes after it are never
// looked at.
func ParseResponse(pkt []byte) (MappedAddress, error) {
	r := newReader(pkt)
	typ, err := r.u16()
	if err != nil {
		return MappedAddress{}, err
	}
	if typ != TypeBindingResponse {
		return MappedAddress{}, fmt.Errorf("%w: type 0x%04x", ErrNotBindingResponse, typ)
	}
	if _, err := r.next(HeaderLen - 2); err != nil {
		return MappedAddress{}, err
	}
	if r.remaining() == 0 {
		return MappedAddress{}, ErrNoMappedAddress
	}

	a, err := readAttribute(r)
	if err != nil {
		return MappedAddress{}, err
	}
	if a.Type != AttrMappedAddress {
		return MappedAddress{}, fmt.Errorf("%w: first attribute 0x%04x", ErrNoMappedAddress, a.Type)
	}
	addr, ok, err := DecodeMappedAddress(a)
	if err != nil {
		return MappedAddress{}, err
	}
	if !ok {
		return MappedAddress{}, ErrNoMappedAddress
	}
	return addr, nil
}

// GetAttribute returns the first attribute with the given type.
func (m *Message) GetAttribute(typ uint16) (Attribute, bool) {
	for _, a := range m.Attributes {
		if a.Type == typ {
			return a, true
		}
	}
	return Attribute{}, false
}
