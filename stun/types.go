package stun

import (
	"encoding/binary"
)

// Message types of the legacy (RFC 3489 style) binding exchange.
const (
	TypeBindingRequest  uint16 = 0x0001
	TypeBindingResponse uint16 = 0x0101
	TypeBindingError    uint16 = 0x0111
)

// Attribute types. Only MAPPED-ADDRESS is decoded; everything else is
// carried through Parse and ignored by ParseResponse.
const (
	AttrMappedAddress    uint16 = 0x0001
	AttrXORMappedAddress uint16 = 0x0020
	AttrSoftware         uint16 = 0x8022
)

const (
	familyIPv4 byte = 0x01
	familyIPv6 byte = 0x02
)

// TransactionID is the 128-bit id field of the legacy header. It occupies
// the bytes a RFC 5389 message uses for the magic cookie and its 96-bit id,
// so servers that see no cookie answer in the legacy format.
type TransactionID [16]byte

// Signature is sent as the transaction id of every binding request.
// It is deliberately constant: responses are matched by this value and
// the server's source address, never by a per-request random id.
var Signature = TransactionID{
	'R', 'B', '3', 'E', 'S', 'T', 'U', 'N',
	'C', 'L', 'I', 'E', 'N', 'T', '!', '!',
}

// readU16 reads a big-endian uint16.
func readU16(b []byte) uint16 { return binary.BigEndian.Uint16(b) }

// putU16 writes a big-endian uint16.
func putU16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }

// padded rounds n up to the 32-bit attribute alignment.
func padded(n int) int { return (n + 3) &^ 3 }
