package endpoint

import (
	"context"
	"fmt"
	"net"

	"github.com/pion/logging"
	"github.com/pion/stun/v3"
)

// DefaultSTUNServer is the public STUN server used by the default prober.
const DefaultSTUNServer = "stun.l.google.com:19302"

// AddressProber discovers the host's addresses. Both methods are called once
// during Endpoint.Start.
type AddressProber interface {
	// PublicIPv4 returns the host's public IPv4 address as seen from the
	// outside.
	PublicIPv4(ctx context.Context) (string, error)

	// InternalIPv4 returns the host's IPv4 address on its LAN interface.
	InternalIPv4() (string, error)
}

// STUNProber is the default AddressProber. The public address comes from a
// STUN binding round-trip; the internal address from the first global
// unicast IPv4 on an up, non-loopback interface.
type STUNProber struct {
	// Server is the STUN server to query. Default: DefaultSTUNServer.
	Server string

	// LoggerFactory is the factory for creating loggers.
	LoggerFactory logging.LoggerFactory
}

// PublicIPv4 implements AddressProber.
func (p *STUNProber) PublicIPv4(ctx context.Context) (string, error) {
	server := p.Server
	if server == "" {
		server = DefaultSTUNServer
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	client, err := stun.Dial("udp4", server)
	if err != nil {
		return "", fmt.Errorf("endpoint: dialing STUN server %s: %w", server, err)
	}
	defer client.Close()

	var ip string
	var probeErr error
	err = client.Do(stun.MustBuild(stun.TransactionID, stun.BindingRequest), func(res stun.Event) {
		if res.Error != nil {
			probeErr = res.Error
			return
		}
		var mapped stun.XORMappedAddress
		if err := mapped.GetFrom(res.Message); err != nil {
			probeErr = err
			return
		}
		ip = mapped.IP.String()
	})
	if err != nil {
		return "", fmt.Errorf("endpoint: STUN probe: %w", err)
	}
	if probeErr != nil {
		return "", fmt.Errorf("endpoint: STUN probe: %w", probeErr)
	}
	return ip, nil
}

// InternalIPv4 implements AddressProber.
func (p *STUNProber) InternalIPv4() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", fmt.Errorf("endpoint: listing interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipNet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip := ipNet.IP.To4()
			if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
				continue
			}
			return ip.String(), nil
		}
	}
	return "", ErrNoAddress
}
