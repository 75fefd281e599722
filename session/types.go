package session

import (
	"github.com/aethiopicuschan/liveless/xnet"
)

// DataType tags the value carried by a Property.
type DataType uint8

const (
	TypeContext  DataType = 0
	TypeInt32    DataType = 1
	TypeInt64    DataType = 2
	TypeDouble   DataType = 3
	TypeUnicode  DataType = 4
	TypeFloat    DataType = 5
	TypeBinary   DataType = 6
	TypeDateTime DataType = 7
	TypeNull     DataType = 0xFF
)

// Value is a property value: a 32-bit integer for TypeInt32, raw bytes for
// every other type.
type Value struct {
	Type   DataType
	Int32  int32
	Opaque []byte
}

// Property is a search property supplied by the caller.
type Property struct {
	ID    uint32
	Value Value
}

// Context is a search context supplied by the caller.
type Context struct {
	ID    uint32
	Value uint32
}

// Query is a session search request.
type Query struct {
	ProcedureIndex uint32
	UserIndex      uint32
	MaxResults     uint32
	NumUsers       uint32
	Properties     []Property
	Contexts       []Context
}

// Descriptor describes one joinable session.
type Descriptor struct {
	Host           xnet.XnAddr
	SessionID      [8]byte
	KeyExchangeKey [16]byte

	OpenPublicSlots    uint32
	OpenPrivateSlots   uint32
	FilledPublicSlots  uint32
	FilledPrivateSlots uint32

	// ContextCount and PropertyCount are what the descriptor reports, not
	// len(Contexts) and len(Properties).
	ContextCount  uint32
	PropertyCount uint32
	Properties    []Property
	Contexts      []Context
}

// SearchResult is the answer to a Query.
type SearchResult struct {
	Results []Descriptor
}
