package discovery

import (
	"net"
	"sync"

	"github.com/grandcat/zeroconf"
	"github.com/pion/logging"
)

// Service is the DNS-SD service type of the signalling surface.
const Service = "_peerd-sig._tcp"

// domain is the DNS-SD domain services are registered in.
const domain = "local."

// MDNSServer is the interface for mDNS service registration.
// This allows for dependency injection in tests.
type MDNSServer interface {
	// Shutdown stops the server.
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances.
type MDNSServerFactory interface {
	// Register creates a new mDNS server for the given service.
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

// zeroconfServerFactory is the production implementation using grandcat/zeroconf.
type zeroconfServerFactory struct{}

func (z *zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

// AdvertiserConfig holds configuration for the Advertiser.
type AdvertiserConfig struct {
	// Instance is the service instance name, e.g. the host name.
	// Default: "peerd".
	Instance string

	// Port is the signalling HTTP port to advertise. Required.
	Port int

	// Fingerprint optionally exposes the endpoint certificate fingerprint
	// in the TXT record so clients can pin it before signalling.
	Fingerprint string

	// Interfaces specifies which network interfaces to advertise on.
	// If nil, all interfaces are used.
	Interfaces []net.Interface

	// ServerFactory is the factory for creating mDNS servers.
	// If nil, the default zeroconf factory is used.
	ServerFactory MDNSServerFactory

	// LoggerFactory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// Advertiser publishes the signalling service to the local network.
type Advertiser struct {
	config  AdvertiserConfig
	factory MDNSServerFactory
	log     logging.LeveledLogger

	mu     sync.Mutex
	server MDNSServer
	closed bool
}

// NewAdvertiser creates a new Advertiser with the given configuration.
func NewAdvertiser(config AdvertiserConfig) (*Advertiser, error) {
	if config.Port <= 0 || config.Port > 65535 {
		return nil, ErrInvalidPort
	}
	if config.Instance == "" {
		config.Instance = "peerd"
	}

	factory := config.ServerFactory
	if factory == nil {
		factory = &zeroconfServerFactory{}
	}

	a := &Advertiser{
		config:  config,
		factory: factory,
	}
	if config.LoggerFactory != nil {
		a.log = config.LoggerFactory.NewLogger("discovery")
	}
	return a, nil
}

// Advertise registers the service. It keeps running until Shutdown.
func (a *Advertiser) Advertise() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server != nil {
		return ErrAlreadyAdvertising
	}

	txt := []string{"txtvers=1"}
	if a.config.Fingerprint != "" {
		txt = append(txt, "fp="+a.config.Fingerprint)
	}

	server, err := a.factory.Register(a.config.Instance, Service, domain, a.config.Port, txt, a.config.Interfaces)
	if err != nil {
		return err
	}
	a.server = server

	if a.log != nil {
		a.log.Infof("advertising %s on port %d as %q", Service, a.config.Port, a.config.Instance)
	}
	return nil
}

// Shutdown withdraws the registration. Safe to call more than once.
func (a *Advertiser) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}
	a.closed = true

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}
