package stun

// This file exposes unexported functions for black-box tests
// in package stun_test. It is compiled only during `go test`.

// endian helpers
var TestReadU16 = readU16
var TestPutU16 = putU16
var TestPadded = padded

// attribute builders used by Server
var TestBuildMappedAddressAttr = buildMappedAddressAttr
var TestBuildSoftwareAttr = buildSoftwareAttr
