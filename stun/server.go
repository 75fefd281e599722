package stun

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/pion/logging"
)

// Server answers legacy binding requests with a binding response carrying
// the sender's MAPPED-ADDRESS. It is the counterpart Client expects and is
// small enough to run next to a game relay.
type Server struct {
	// Conn is the UDP socket the server reads from and writes to.
	Conn *net.UDPConn

	// Software, if non-empty, is included as a SOFTWARE attribute in responses.
	Software string

	// ReadTimeout, if > 0, sets a read deadline each loop iteration so that
	// Close and ctx cancellation are noticed promptly.
	ReadTimeout time.Duration

	// MaxPacketSize is the max UDP datagram size to read into the buffer.
	// If zero, defaults to 1500.
	MaxPacketSize int

	// Logger receives one line per answered request.
	Logger logging.LeveledLogger

	mu        sync.Mutex
	shut      bool
	onceClose sync.Once
	wg        sync.WaitGroup
}

// ListenUDP binds an IPv4 socket on addr (e.g. "0.0.0.0:3478"). The
// legacy exchange has no IPv6 form.
//
// Call Serve/ServeContext to start handling requests.
func ListenUDP(addr string) (*Server, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Server{
		Conn:          conn,
		ReadTimeout:   time.Second,
		MaxPacketSize: 1500,
		Logger:        logging.NewDefaultLoggerFactory().NewLogger("stun-server"),
	}, nil
}

// Close stops the server and closes the socket. It is safe to call more
// than once.
func (s *Server) Close() error {
	var err error
	s.onceClose.Do(func() {
		s.mu.Lock()
		s.shut = true
		s.mu.Unlock()
		if s.Conn != nil {
			err = s.Conn.Close()
		}
	})
	s.wg.Wait()
	return err
}

// Serve is ServeContext without a context.
func (s *Server) Serve() error {
	return s.ServeContext(context.Background())
}

// ServeContext answers requests until ctx is done or Close is called.
// It returns ctx.Err() for a canceled ctx and nil after Close, including
// when Close ran first.
func (s *Server) ServeContext(ctx context.Context) error {
	if s.Conn == nil {
		return errors.New("stun: server Conn is nil")
	}
	// Add under mu so that Close either waits for this loop or is seen
	// by it before it starts.
	s.mu.Lock()
	if s.shut {
		s.mu.Unlock()
		return nil
	}
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	stop := context.AfterFunc(ctx, func() {
		_ = s.Conn.SetReadDeadline(time.Now())
	})
	defer stop()

	size := s.MaxPacketSize
	if size <= 0 {
		size = 1500
	}
	buf := make([]byte, size)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.closed() {
			return nil
		}

		if s.ReadTimeout > 0 {
			_ = s.Conn.SetReadDeadline(time.Now().Add(s.ReadTimeout))
		}
		n, raddr, err := s.Conn.ReadFromUDPAddrPort(buf)
		switch {
		case err == nil:
			s.handlePacket(buf[:n], raddr)
		case s.closed():
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
	}
}

func (s *Server) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shut
}

// handlePacket replies to a binding request; anything else is dropped.
func (s *Server) handlePacket(pkt []byte, raddr netip.AddrPort) {
	req, err := Parse(pkt)
	if err != nil {
		return
	}
	if req.Type != TypeBindingRequest {
		return
	}

	resp := s.makeBindingResponse(req, raddr)
	if _, err := s.Conn.WriteToUDPAddrPort(resp.Marshal(), raddr); err != nil {
		s.log().Warnf("binding response to %s: %v", raddr, err)
		return
	}
	s.log().Debugf("answered binding request from %s", raddr)
}

// makeBindingResponse echoes the request's transaction id, which is what
// Client checks when VerifyTransaction is set.
func (s *Server) makeBindingResponse(req *Message, raddr netip.AddrPort) *Message {
	attrs := make([]Attribute, 0, 2)
	attrs = append(attrs, buildMappedAddressAttr(raddr))

	if s.Software != "" {
		attrs = append(attrs, buildSoftwareAttr(s.Software))
	}

	return &Message{
		Type:          TypeBindingResponse,
		TransactionID: req.TransactionID,
		Attributes:    attrs,
	}
}

// buildSoftwareAttr encodes a SOFTWARE attribute.
func buildSoftwareAttr(software string) Attribute {
	return Attribute{
		Type:  AttrSoftware,
		Value: []byte(software),
	}
}

func (s *Server) log() logging.LeveledLogger {
	if s.Logger == nil {
		s.Logger = logging.NewDefaultLoggerFactory().NewLogger("stun-server")
	}
	return s.Logger
}
