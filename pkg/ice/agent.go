package ice

import (
	"net"
	"sync"
	"time"

	"github.com/pion/logging"
	"github.com/pion/stun/v3"
)

// DefaultCheckInterval is the pacing of outgoing connectivity checks.
const DefaultCheckInterval = time.Second

// SendFunc transmits a raw datagram to a remote address.
type SendFunc func(data []byte, addr net.Addr) error

// AgentConfig configures a STUN agent.
type AgentConfig struct {
	// LocalUfrag and LocalPwd are this endpoint's ICE credentials.
	LocalUfrag string
	LocalPwd   string

	// PeerUfrag and PeerPwd are the credentials taken from the offer.
	PeerUfrag string
	PeerPwd   string

	// Candidates is the remote candidate set checks are sent to.
	// Required.
	Candidates *Set

	// Send transmits datagrams on the session's UDP socket.
	// Required.
	Send SendFunc

	// OnValidated is called once, when the first outgoing binding request
	// is answered by a valid success response. The address is the remote
	// the check was sent to.
	OnValidated func(remote *net.UDPAddr)

	// CheckInterval overrides the pacing of outgoing checks.
	// Default: DefaultCheckInterval.
	CheckInterval time.Duration

	// LoggerFactory is the factory for creating loggers.
	// If nil, the default factory is used.
	LoggerFactory logging.LoggerFactory
}

// Agent answers incoming STUN binding requests and emits periodic outgoing
// checks toward the primary candidate. It owns no socket; the session feeds
// it datagrams already classified as STUN and lends it a send function.
type Agent struct {
	config AgentConfig
	log    logging.LeveledLogger

	closeCh chan struct{}
	wg      sync.WaitGroup

	mu        sync.Mutex
	started   bool
	closed    bool
	validated bool
	// inflight maps transaction IDs of sent checks to their target.
	inflight map[[stun.TransactionIDSize]byte]*net.UDPAddr
}

// NewAgent creates a STUN agent. Start must be called to begin the periodic
// checks; incoming traffic is handled as soon as HandleDatagram is invoked.
func NewAgent(config AgentConfig) (*Agent, error) {
	if config.Send == nil {
		return nil, ErrNoSender
	}
	if config.Candidates == nil {
		return nil, ErrNoCandidates
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultCheckInterval
	}

	lf := config.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}

	return &Agent{
		config:   config,
		log:      lf.NewLogger("stun"),
		closeCh:  make(chan struct{}),
		inflight: make(map[[stun.TransactionIDSize]byte]*net.UDPAddr),
	}, nil
}

// Start launches the periodic check loop.
func (a *Agent) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.started {
		return ErrAlreadyStarted
	}
	a.started = true

	a.wg.Add(1)
	go a.checkLoop()
	return nil
}

// Stop terminates the check loop. The agent cannot be restarted.
func (a *Agent) Stop() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.closed = true
	a.mu.Unlock()

	close(a.closeCh)
	a.wg.Wait()
	return nil
}

// HandleDatagram processes one datagram already classified as STUN.
// Invalid messages are logged and dropped.
func (a *Agent) HandleDatagram(data []byte, from net.Addr) {
	m := &stun.Message{Raw: append([]byte{}, data...)}
	if err := m.Decode(); err != nil {
		a.log.Warnf("dropping undecodable STUN message from %v: %v", from, err)
		return
	}

	switch m.Type {
	case stun.BindingRequest:
		a.handleBindingRequest(m, from)
	case stun.BindingSuccess:
		a.handleBindingSuccess(m)
	default:
		a.log.Debugf("ignoring STUN message %s from %v", m.Type, from)
	}
}

// handleBindingRequest validates an incoming check and answers it with a
// binding success carrying the sender's reflexive transport address.
// Integrity of both request and response is keyed by the local password.
func (a *Agent) handleBindingRequest(m *stun.Message, from net.Addr) {
	if err := stun.Fingerprint.Check(m); err != nil {
		a.log.Warnf("dropping binding request from %v: bad fingerprint: %v", from, err)
		return
	}
	if err := stun.NewShortTermIntegrity(a.config.LocalPwd).Check(m); err != nil {
		a.log.Warnf("dropping binding request from %v: bad integrity: %v", from, err)
		return
	}

	var username stun.Username
	if err := username.GetFrom(m); err != nil {
		a.log.Warnf("dropping binding request from %v: no username: %v", from, err)
		return
	}
	if want := a.config.LocalUfrag + ":" + a.config.PeerUfrag; string(username) != want {
		a.log.Warnf("dropping binding request from %v: username %q, want %q", from, username, want)
		return
	}

	udpFrom, ok := from.(*net.UDPAddr)
	if !ok {
		a.log.Warnf("dropping binding request from non-UDP source %v", from)
		return
	}

	resp, err := stun.Build(
		stun.NewTransactionIDSetter(m.TransactionID),
		stun.BindingSuccess,
		&stun.XORMappedAddress{IP: udpFrom.IP, Port: udpFrom.Port},
		stun.NewShortTermIntegrity(a.config.LocalPwd),
		stun.Fingerprint,
	)
	if err != nil {
		a.log.Errorf("building binding response: %v", err)
		return
	}

	if err := a.config.Send(resp.Raw, from); err != nil {
		a.log.Warnf("sending binding response to %v: %v", from, err)
	}
}

// handleBindingSuccess matches a success response against an in-flight check
// and reports the first validated pair. Responses are keyed by the peer's
// password, the same key the request carried.
func (a *Agent) handleBindingSuccess(m *stun.Message) {
	if err := stun.Fingerprint.Check(m); err != nil {
		a.log.Warnf("dropping binding response: bad fingerprint: %v", err)
		return
	}
	if err := stun.NewShortTermIntegrity(a.config.PeerPwd).Check(m); err != nil {
		a.log.Warnf("dropping binding response: bad integrity: %v", err)
		return
	}

	a.mu.Lock()
	target, ok := a.inflight[m.TransactionID]
	if ok {
		delete(a.inflight, m.TransactionID)
	}
	first := ok && !a.validated
	if first {
		a.validated = true
	}
	a.mu.Unlock()

	if !ok {
		a.log.Debugf("ignoring binding response with unknown transaction ID")
		return
	}

	a.log.Infof("connectivity check to %v succeeded", target)
	if first && a.config.OnValidated != nil {
		a.config.OnValidated(target)
	}
}

// checkLoop sends a binding request to the primary candidate once per
// interval while the candidate set is non-empty.
func (a *Agent) checkLoop() {
	defer a.wg.Done()

	ticker := time.NewTicker(a.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.closeCh:
			return
		case <-ticker.C:
			a.sendCheck()
		}
	}
}

// sendCheck emits one aggressive-nomination binding request, keyed by the
// peer's password.
func (a *Agent) sendCheck() {
	primary, err := a.config.Candidates.Primary()
	if err != nil {
		return
	}
	target := primary.UDPAddr()

	m, err := stun.Build(
		stun.TransactionID,
		stun.BindingRequest,
		stun.NewUsername(a.config.PeerUfrag+":"+a.config.LocalUfrag),
		useCandidate{},
		attrControlling(ControllingTieBreaker),
		attrPriority(HostPriority),
		stun.NewShortTermIntegrity(a.config.PeerPwd),
		stun.Fingerprint,
	)
	if err != nil {
		a.log.Errorf("building binding request: %v", err)
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.inflight[m.TransactionID] = target
	a.mu.Unlock()

	if err := a.config.Send(m.Raw, target); err != nil {
		a.log.Warnf("sending binding request to %v: %v", target, err)
	}
}
