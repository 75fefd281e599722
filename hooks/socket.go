package hooks

// Socket types and protocols seen by the socket replacement.
const (
	SockStream = 1
	SockDgram  = 2

	ProtoTCP = 6
	ProtoUDP = 17
	// ProtoVDP is the console's voice/data protocol, a UDP variant with an
	// encrypted header that peers outside the online service cannot read.
	ProtoVDP = 254
)

// SocketParams is what the socket replacement creates instead of the
// requested socket.
type SocketParams struct {
	Protocol int

	// Insecure disables the platform's secure-association requirement.
	Insecure bool

	// NoEncryption disables stream encryption. Only set for streams.
	NoEncryption bool
}

// Socket rewrites a socket request so that it can talk to peers reached
// through the redirect target.
func Socket(sockType, protocol int) SocketParams {
	p := SocketParams{Protocol: protocol, Insecure: true}
	if protocol == ProtoVDP {
		p.Protocol = ProtoUDP
	}
	if sockType == SockStream {
		p.NoEncryption = true
	}
	return p
}

// UseSecureSockets always answers no.
func UseSecureSockets() bool { return false }
