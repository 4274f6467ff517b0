package transport

import (
	"errors"
	"net"
	"sync"

	"github.com/pion/logging"
)

// MaxDatagramSize bounds a single UDP datagram. DTLS records and STUN
// messages both fit comfortably below the usual path MTU; the generous bound
// covers jumbo-frame local networks.
const MaxDatagramSize = 8192

// STUNHandler consumes datagrams classified as STUN. The slice is only
// valid for the duration of the call; handlers that retain it must copy.
type STUNHandler func(data []byte, from net.Addr)

// Socket is the session's UDP socket together with the RFC 7983 dispatch
// built on top of it. Inbound datagrams are classified by their first byte:
// STUN messages go to the configured handler, DTLS records are queued into
// the attached unicast view, everything else is dropped.
//
// There is no separate start step: the socket reads from the moment Listen
// returns until Close. The DTLS side only exists once AttachView has pinned
// a remote peer.
type Socket struct {
	conn net.PacketConn
	stun STUNHandler
	log  logging.LeveledLogger
	done chan struct{}

	mu     sync.RWMutex
	view   *UnicastView
	closed bool
}

// SocketConfig configures a Socket.
type SocketConfig struct {
	// Conn is an optional pre-bound packet socket, mostly for tests.
	// When nil, a new IPv4 socket is bound on ListenAddr.
	Conn net.PacketConn

	// ListenAddr is the bind address when Conn is nil. Empty means an
	// ephemeral port on all interfaces.
	ListenAddr string

	// STUN receives every datagram in the STUN byte range. Required.
	STUN STUNHandler

	// LoggerFactory is the factory for creating loggers.
	// If nil, the default factory is used.
	LoggerFactory logging.LoggerFactory
}

// Listen binds the socket and starts dispatching inbound datagrams.
func Listen(config SocketConfig) (*Socket, error) {
	if config.STUN == nil {
		return nil, ErrNoHandler
	}

	conn := config.Conn
	if conn == nil {
		addr := config.ListenAddr
		if addr == "" {
			addr = ":0"
		}
		c, err := net.ListenPacket("udp4", addr)
		if err != nil {
			return nil, err
		}
		conn = c
	}

	lf := config.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}

	s := &Socket{
		conn: conn,
		stun: config.STUN,
		log:  lf.NewLogger("transport"),
		done: make(chan struct{}),
	}

	s.log.Infof("listening on %s", conn.LocalAddr())
	go s.dispatch()
	return s, nil
}

// AttachView pins the socket's DTLS traffic to remote. The first call
// creates the unicast view; later calls only move its target, so the DTLS
// consumer keeps its connection identity across candidate changes.
func (s *Socket) AttachView(remote *net.UDPAddr) *UnicastView {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.view == nil {
		s.view = newUnicastView(s, remote)
	} else {
		s.view.SetRemote(remote)
	}
	return s.view
}

// Send transmits one datagram to addr.
func (s *Socket) Send(data []byte, addr net.Addr) error {
	if addr == nil {
		return ErrInvalidAddress
	}
	if len(data) > MaxDatagramSize {
		return ErrDatagramTooLarge
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	_, err := s.conn.WriteTo(data, addr)
	return err
}

// LocalAddr returns the bound address.
func (s *Socket) LocalAddr() net.Addr {
	return s.conn.LocalAddr()
}

// Port returns the bound UDP port.
func (s *Socket) Port() int {
	if addr, ok := s.conn.LocalAddr().(*net.UDPAddr); ok {
		return addr.Port
	}
	return 0
}

// Close releases the socket, closes the attached view and waits for the
// dispatch loop to exit.
func (s *Socket) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	view := s.view
	s.mu.Unlock()

	if view != nil {
		view.Close()
	}
	err := s.conn.Close()
	<-s.done
	return err
}

// dispatch is the socket's single read loop. STUN payloads are handed out
// without copying — the agent decodes into its own buffer — and DTLS
// records are copied by the view's queue, so the read buffer is reused
// across iterations.
func (s *Socket) dispatch() {
	defer close(s.done)

	buf := make([]byte, MaxDatagramSize)
	for {
		n, from, err := s.conn.ReadFrom(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) || s.isClosed() {
				return
			}
			s.log.Warnf("read error: %v", err)
			continue
		}
		if n == 0 {
			continue
		}
		pkt := buf[:n]

		switch {
		case IsSTUN(pkt):
			s.stun(pkt, from)
		case IsDTLS(pkt):
			s.mu.RLock()
			view := s.view
			s.mu.RUnlock()
			if view == nil {
				s.log.Warnf("dropping DTLS record from %v before any candidate", from)
				continue
			}
			if err := view.Deliver(pkt); err != nil {
				s.log.Warnf("dropping DTLS record from %v: %v", from, err)
			}
		default:
			s.log.Debugf("dropping %d-byte datagram from %v outside the STUN/DTLS ranges", n, from)
		}
	}
}

func (s *Socket) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
