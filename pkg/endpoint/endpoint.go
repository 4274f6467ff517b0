package endpoint

import (
	"context"
	"crypto/tls"
	"fmt"
	"sync"
	"time"

	"github.com/pion/logging"

	"github.com/peerd/peerd/pkg/creds"
	"github.com/peerd/peerd/pkg/session"
)

// Config configures an Endpoint.
type Config struct {
	// CertificatePEM and KeyPEM are the PEM-encoded server certificate and
	// private key. Required.
	CertificatePEM []byte
	KeyPEM         []byte

	// Prober discovers the host's addresses. Default: STUNProber.
	Prober AddressProber

	// CheckInterval overrides the STUN check pacing of created sessions.
	CheckInterval time.Duration

	// DTLS and SCTP override the protocol collaborators of created
	// sessions. Mostly useful in tests.
	DTLS session.DTLSDialer
	SCTP session.SCTPStarter

	// OnSession is called for each created session.
	OnSession func(*session.Session)

	// OnChannel is called for each DataChannel opened on any session.
	OnChannel func(*session.Session, *session.DataChannel)

	// OnReady is called once address discovery completes.
	OnReady func()

	// LoggerFactory is the factory for creating loggers.
	// If nil, the default factory is used.
	LoggerFactory logging.LoggerFactory
}

// Endpoint is the process-wide server identity plus the set of live
// sessions. Sessions are created via CreateSession and remove themselves
// from the registry when they close.
type Endpoint struct {
	config      Config
	log         logging.LeveledLogger
	lf          logging.LoggerFactory
	certificate tls.Certificate
	fingerprint string

	mu         sync.RWMutex
	started    bool
	closed     bool
	publicIP   string
	internalIP string
	sessions   map[string]*session.Session
}

// New validates the credentials and creates an endpoint. Start must be
// called before sessions can be created.
func New(config Config) (*Endpoint, error) {
	if len(config.CertificatePEM) == 0 || len(config.KeyPEM) == 0 {
		return nil, ErrInvalidCredentials
	}

	cert, err := tls.X509KeyPair(config.CertificatePEM, config.KeyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	lf := config.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	if config.Prober == nil {
		config.Prober = &STUNProber{LoggerFactory: lf}
	}

	return &Endpoint{
		config:      config,
		log:         lf.NewLogger("endpoint"),
		lf:          lf,
		certificate: cert,
		fingerprint: creds.Fingerprint(cert.Certificate[0]),
		sessions:    make(map[string]*session.Session),
	}, nil
}

// Fingerprint returns the SHA-256 fingerprint of the server certificate.
func (e *Endpoint) Fingerprint() string {
	return e.fingerprint
}

// Start discovers the host's public and internal IPv4 addresses
// concurrently, then reports readiness.
func (e *Endpoint) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.mu.Unlock()

	var (
		wg                     sync.WaitGroup
		publicIP, internalIP   string
		publicErr, internalErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		publicIP, publicErr = e.config.Prober.PublicIPv4(ctx)
	}()
	go func() {
		defer wg.Done()
		internalIP, internalErr = e.config.Prober.InternalIPv4()
	}()
	wg.Wait()

	if publicErr != nil {
		return fmt.Errorf("endpoint: probing public address: %w", publicErr)
	}
	if internalErr != nil {
		return fmt.Errorf("endpoint: probing internal address: %w", internalErr)
	}

	e.mu.Lock()
	e.publicIP = publicIP
	e.internalIP = internalIP
	e.started = true
	e.mu.Unlock()

	e.log.Infof("endpoint ready: public %s, internal %s", publicIP, internalIP)
	if e.config.OnReady != nil {
		e.config.OnReady()
	}
	return nil
}

// PublicIP returns the discovered public IPv4, empty before Start.
func (e *Endpoint) PublicIP() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.publicIP
}

// InternalIP returns the discovered internal IPv4, empty before Start.
func (e *Endpoint) InternalIP() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.internalIP
}

// CreateSession constructs and registers a new session.
func (e *Endpoint) CreateSession() (*session.Session, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if !e.started {
		e.mu.Unlock()
		return nil, ErrNotStarted
	}
	publicIP, internalIP := e.publicIP, e.internalIP
	e.mu.Unlock()

	var s *session.Session
	s, err := session.New(session.Config{
		Certificate:   e.certificate,
		Fingerprint:   e.fingerprint,
		PublicIP:      publicIP,
		InternalIP:    internalIP,
		CheckInterval: e.config.CheckInterval,
		DTLS:          e.config.DTLS,
		SCTP:          e.config.SCTP,
		OnChannel: func(ch *session.DataChannel) {
			if e.config.OnChannel != nil {
				e.config.OnChannel(s, ch)
			}
		},
		OnClose:       e.removeSession,
		LoggerFactory: e.lf,
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.sessions[s.ID()] = s
	e.mu.Unlock()

	e.log.Infof("created session %s", s.ID())
	if e.config.OnSession != nil {
		e.config.OnSession(s)
	}
	return s, nil
}

// FindByPeerUfrag returns the session negotiated with the peer whose ICE
// username fragment matches, or nil.
func (e *Endpoint) FindByPeerUfrag(ufrag string) *session.Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, s := range e.sessions {
		if s.PeerUfrag() == ufrag {
			return s
		}
	}
	return nil
}

// Size reports the number of live sessions.
func (e *Endpoint) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// Stop closes every live session and refuses further work.
func (e *Endpoint) Stop() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	e.closed = true
	sessions := make([]*session.Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		sessions = append(sessions, s)
	}
	e.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
	return nil
}

// removeSession is the OnClose callback of every created session.
func (e *Endpoint) removeSession(s *session.Session) {
	e.mu.Lock()
	delete(e.sessions, s.ID())
	e.mu.Unlock()
	e.log.Infof("removed session %s", s.ID())
}
