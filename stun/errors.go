package stun

import (
	"errors"
)

var (
	// ErrTruncated indicates that a datagram or attribute ended before the
	// fields its header announces.
	ErrTruncated = errors.New("stun: truncated message")

	// ErrNotBindingResponse indicates that the datagram is not a binding
	// response. Nothing is learned from it.
	ErrNotBindingResponse = errors.New("stun: not a binding response")

	// ErrNoMappedAddress indicates that the response did not contain an IPv4
	// MAPPED-ADDRESS attribute.
	ErrNoMappedAddress = errors.New("stun: no mapped address in response")

	// ErrTimeout indicates that no response arrived before the deadline.
	ErrTimeout = errors.New("stun: timeout")

	// ErrNoIPv4 indicates that the server host has no IPv4 address.
	ErrNoIPv4 = errors.New("stun: server has no IPv4 address")
)

// Stage names a step of the discovery exchange.
type Stage string

const (
	StageResolve   Stage = "resolve"
	StageBind      Stage = "bind"
	StageConfigure Stage = "configure"
	StageSend      Stage = "send"
	StageReceive   Stage = "receive"
	StageParse     Stage = "parse"
)

// DiscoveryError reports the stage at which a discovery attempt failed.
type DiscoveryError struct {
	Stage Stage
	Err   error
}

func (e *DiscoveryError) Error() string {
	return "stun: " + string(e.Stage) + ": " + e.Err.Error()
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// NothingLearned reports whether err only means the server answered with
// something other than a usable binding response.
func NothingLearned(err error) bool {
	return errors.Is(err, ErrNotBindingResponse) || errors.Is(err, ErrNoMappedAddress)
}
