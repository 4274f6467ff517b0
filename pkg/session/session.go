package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pion/logging"

	"github.com/peerd/peerd/pkg/creds"
	"github.com/peerd/peerd/pkg/ice"
	"github.com/peerd/peerd/pkg/sdp"
	"github.com/peerd/peerd/pkg/transport"
)

// handshakeTimeout bounds the DTLS handshake once ICE has connected.
const handshakeTimeout = 30 * time.Second

// Config configures a session.
type Config struct {
	// Certificate is the endpoint's DTLS certificate and key.
	// Required.
	Certificate tls.Certificate

	// Fingerprint is the SHA-256 fingerprint of Certificate, advertised in
	// the answer.
	Fingerprint string

	// InternalIP and PublicIP are the host addresses advertised as the
	// answer's host and server-reflexive candidates.
	InternalIP string
	PublicIP   string

	// UDPConn optionally injects a pre-bound packet socket.
	UDPConn net.PacketConn

	// CheckInterval overrides the STUN check pacing. Default 1s.
	CheckInterval time.Duration

	// DTLS and SCTP override the protocol collaborators. Defaults use
	// pion/dtls and pion/sctp.
	DTLS DTLSDialer
	SCTP SCTPStarter

	// OnStateChange is called after every state transition.
	OnStateChange func(State)

	// OnChannel is called for each DataChannel opened by the peer.
	OnChannel func(*DataChannel)

	// OnError is called when a fatal protocol error closes the session.
	OnError func(error)

	// OnClose is called exactly once when the session reaches Closed.
	OnClose func(*Session)

	// LoggerFactory is the factory for creating loggers.
	// If nil, the default factory is used.
	LoggerFactory logging.LoggerFactory
}

// Session is one negotiated peer connection. It owns its UDP socket, remote
// candidate set and unicast view, and the STUN, DTLS and SCTP agents built
// on them.
type Session struct {
	config Config
	log    logging.LeveledLogger
	lf     logging.LoggerFactory

	id         string
	localUfrag string
	localPwd   string

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	state State

	// Captured from the offer; immutable once Offered.
	peerUfrag       string
	peerPwd         string
	peerFingerprint string
	mid             string

	answer string

	udp        *transport.Socket
	view       *transport.UnicastView
	candidates *ice.Set
	agent      *ice.Agent

	dtlsConn net.Conn
	assoc    SCTPAssociation

	closeOnce sync.Once
}

// New creates a session with fresh local ICE credentials.
func New(config Config) (*Session, error) {
	if len(config.Certificate.Certificate) == 0 {
		return nil, ErrNoCertificate
	}
	if config.DTLS == nil {
		config.DTLS = pionDTLSDialer{}
	}
	if config.SCTP == nil {
		config.SCTP = pionSCTPStarter{}
	}

	lf := config.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}

	ufrag, err := creds.NewUsername()
	if err != nil {
		return nil, fmt.Errorf("session: generating ufrag: %w", err)
	}
	pwd, err := creds.NewPassword()
	if err != nil {
		return nil, fmt.Errorf("session: generating password: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		config:     config,
		log:        lf.NewLogger("session"),
		lf:         lf,
		id:         uuid.NewString(),
		localUfrag: ufrag,
		localPwd:   pwd,
		ctx:        ctx,
		cancel:     cancel,
		state:      StateNew,
		candidates: ice.NewSet(),
	}, nil
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// LocalUfrag returns the local ICE username fragment.
func (s *Session) LocalUfrag() string { return s.localUfrag }

// LocalPassword returns the local ICE password.
func (s *Session) LocalPassword() string { return s.localPwd }

// PeerUfrag returns the peer's ICE username fragment, empty before an offer
// has been applied.
func (s *Session) PeerUfrag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peerUfrag
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Answer returns the serialised answer, empty before CreateAnswer.
func (s *Session) Answer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.answer
}

// Port returns the local UDP port, 0 before listening.
func (s *Session) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.udp == nil {
		return 0
	}
	return s.udp.Port()
}

// CreateAnswer applies the peer's offer and returns the serialised answer.
// On return the session is listening: the socket is bound, connectivity
// checks are running, and any in-line candidates have been seeded.
func (s *Session) CreateAnswer(offer string) (string, error) {
	o, err := sdp.ParseOffer(offer)
	if err != nil {
		return "", err
	}
	media, err := o.SelectData()
	if err != nil {
		return "", err
	}
	fp, err := o.PeerFingerprint(media)
	if err != nil {
		return "", fmt.Errorf("%w: %v", sdp.ErrInvalidOffer, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNew {
		return "", fmt.Errorf("%w: CreateAnswer in state %s", ErrInvalidState, s.state)
	}

	s.peerUfrag = media.ICEUfrag
	s.peerPwd = media.ICEPwd
	s.peerFingerprint = creds.NormalizeFingerprint(fp.Hash)
	s.mid = o.BundleMid()
	s.advanceLocked(StateOffered)

	sock, err := transport.Listen(transport.SocketConfig{
		Conn:          s.config.UDPConn,
		STUN:          s.handleSTUN,
		LoggerFactory: s.lf,
	})
	if err != nil {
		return "", fmt.Errorf("session: binding socket: %w", err)
	}
	s.udp = sock
	s.advanceLocked(StateListening)

	agent, err := ice.NewAgent(ice.AgentConfig{
		LocalUfrag:    s.localUfrag,
		LocalPwd:      s.localPwd,
		PeerUfrag:     s.peerUfrag,
		PeerPwd:       s.peerPwd,
		Candidates:    s.candidates,
		Send:          sock.Send,
		OnValidated:   s.onIceValidated,
		CheckInterval: s.config.CheckInterval,
		LoggerFactory: s.lf,
	})
	if err != nil {
		return "", fmt.Errorf("session: creating STUN agent: %w", err)
	}
	if err := agent.Start(); err != nil {
		return "", fmt.Errorf("session: starting STUN agent: %w", err)
	}
	s.agent = agent

	// In-line candidates are preferred over trickle; seed them first.
	for _, c := range media.Candidates {
		s.appendCandidateLocked(c.IP, c.Port, c.Priority)
	}

	answer, err := sdp.CreateAnswer(sdp.AnswerParams{
		Username:    s.localUfrag,
		Password:    s.localPwd,
		Fingerprint: s.config.Fingerprint,
		Mid:         s.mid,
		Candidates:  s.advertisedCandidatesLocked(),
	})
	if err != nil {
		return "", err
	}
	s.answer = answer

	s.log.Infof("session %s listening on port %d for peer %s", s.id, sock.Port(), s.peerUfrag)
	return answer, nil
}

// AdvertisedCandidates returns the two candidates the endpoint advertises:
// the internal address as host and the public address as server-reflexive,
// both on the session's socket port.
func (s *Session) AdvertisedCandidates() []sdp.AnswerCandidate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advertisedCandidatesLocked()
}

func (s *Session) advertisedCandidatesLocked() []sdp.AnswerCandidate {
	port := 0
	if s.udp != nil {
		port = s.udp.Port()
	}
	return []sdp.AnswerCandidate{
		{IP: s.config.InternalIP, Port: port, Type: sdp.CandidateHost, Priority: ice.HostPriority},
		{IP: s.config.PublicIP, Port: port, Type: sdp.CandidateServerReflexive, Priority: ice.ServerReflexivePriority},
	}
}

// AppendCandidate adds a trickled remote candidate. The unicast view's
// target is updated to the set's primary in the same critical section.
func (s *Session) AppendCandidate(address string, port int, priority uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return ErrClosed
	}
	if s.state < StateListening {
		return fmt.Errorf("%w: AppendCandidate in state %s", ErrInvalidState, s.state)
	}
	s.appendCandidateLocked(address, port, priority)
	return nil
}

func (s *Session) appendCandidateLocked(address string, port int, priority uint32) {
	s.candidates.Push(address, port, priority)

	primary, err := s.candidates.Primary()
	if err != nil {
		return
	}
	s.view = s.udp.AttachView(primary.UDPAddr())
	s.log.Debugf("session %s primary candidate now %s", s.id, primary)
}

// handleSTUN is the socket's STUN dispatch target. The socket routes DTLS
// records into the unicast view itself; only STUN reaches the session.
func (s *Session) handleSTUN(data []byte, from net.Addr) {
	if agent := s.stunAgent(); agent != nil {
		agent.HandleDatagram(data, from)
	}
}

func (s *Session) stunAgent() *ice.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.agent
}

func (s *Session) unicastView() *transport.UnicastView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// onIceValidated fires on the first successful outbound connectivity check.
// The DTLS handshake must not run on the socket's read loop, so it gets its
// own goroutine.
func (s *Session) onIceValidated(remote *net.UDPAddr) {
	s.mu.Lock()
	if s.state != StateListening {
		s.mu.Unlock()
		return
	}
	s.advanceLocked(StateIceConnected)
	view := s.view
	s.mu.Unlock()

	s.log.Infof("session %s ICE connected to %v", s.id, remote)
	go s.runDTLS(view)
}

// runDTLS performs the active DTLS handshake over the unicast view, then
// brings up the SCTP association in the server role.
func (s *Session) runDTLS(view *transport.UnicastView) {
	ctx, cancel := context.WithTimeout(s.ctx, handshakeTimeout)
	defer cancel()

	conn, err := s.config.DTLS.Dial(ctx, view, view.Remote(), DTLSConfig{
		Certificate:   s.config.Certificate,
		VerifyPeer:    s.verifyPeerCertificate,
		LoggerFactory: s.lf,
	})
	if err != nil {
		s.fail(fmt.Errorf("session: DTLS handshake: %w", err))
		return
	}

	s.mu.Lock()
	if s.state != StateIceConnected {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.dtlsConn = conn
	s.advanceLocked(StateDtlsConnected)
	s.mu.Unlock()

	s.log.Infof("session %s DTLS established", s.id)

	assoc, err := s.config.SCTP.Listen(conn, s.lf)
	if err != nil {
		s.fail(fmt.Errorf("session: SCTP association: %w", err))
		return
	}

	s.mu.Lock()
	if s.state != StateDtlsConnected {
		s.mu.Unlock()
		assoc.Close()
		return
	}
	s.assoc = assoc
	s.advanceLocked(StateSctpReady)
	s.mu.Unlock()

	s.log.Infof("session %s SCTP ready", s.id)
	go s.acceptStreams(assoc)
}

// verifyPeerCertificate pins the peer certificate to the offer-declared
// fingerprint.
func (s *Session) verifyPeerCertificate(der []byte) error {
	got := creds.Fingerprint(der)

	s.mu.Lock()
	want := s.peerFingerprint
	s.mu.Unlock()

	if got != want {
		return fmt.Errorf("%w: got %s, offer declared %s", ErrFingerprintMismatch, got, want)
	}
	return nil
}

// acceptStreams mirrors each incoming SCTP stream as a negotiated
// DataChannel and hands it to the application.
func (s *Session) acceptStreams(assoc SCTPAssociation) {
	for {
		stream, err := assoc.AcceptStream()
		if err != nil {
			select {
			case <-s.ctx.Done():
			default:
				s.fail(fmt.Errorf("session: accepting SCTP stream: %w", err))
			}
			return
		}

		ch, err := newDataChannel(stream, s.lf)
		if err != nil {
			s.log.Warnf("session %s: wrapping stream %d: %v", s.id, stream.StreamIdentifier(), err)
			continue
		}

		s.log.Infof("session %s channel open on stream %d", s.id, ch.StreamID())
		if s.config.OnChannel != nil {
			s.config.OnChannel(ch)
		}
	}
}

// advanceLocked moves the state machine forward. Callers hold s.mu.
// Illegal transitions are a programming error and panic.
func (s *Session) advanceLocked(next State) {
	if !s.state.canAdvanceTo(next) {
		panic(fmt.Sprintf("session: illegal transition %s -> %s", s.state, next))
	}
	s.state = next
	if s.config.OnStateChange != nil {
		s.config.OnStateChange(next)
	}
}

// fail reports a fatal error and tears the session down.
func (s *Session) fail(err error) {
	s.log.Errorf("session %s: %v", s.id, err)
	if s.config.OnError != nil {
		s.config.OnError(err)
	}
	s.Close()
}

// Close tears the session down: the connectivity agent stops, the SCTP
// association and DTLS connection are closed, and the socket is released.
// Close is idempotent and safe from any state.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.cancel()

		s.mu.Lock()
		s.advanceLocked(StateClosed)
		agent, assoc, conn, sock := s.agent, s.assoc, s.dtlsConn, s.udp
		s.mu.Unlock()

		if agent != nil {
			agent.Stop()
		}
		if assoc != nil {
			assoc.Close()
		}
		if conn != nil {
			conn.Close()
		}
		// Closing the socket also closes the attached unicast view.
		if sock != nil {
			sock.Close()
		}

		s.log.Infof("session %s closed", s.id)
		if s.config.OnClose != nil {
			s.config.OnClose(s)
		}
	})
	return nil
}
