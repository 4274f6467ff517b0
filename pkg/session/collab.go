package session

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"

	"github.com/pion/dtls/v3"
	"github.com/pion/logging"
	"github.com/pion/sctp"
)

// DTLSConfig carries what a DTLS dialer needs from the session.
type DTLSConfig struct {
	// Certificate is the endpoint's certificate and key.
	Certificate tls.Certificate

	// VerifyPeer is called with the peer's raw DER certificate. A non-nil
	// return fails the handshake.
	VerifyPeer func(der []byte) error

	// LoggerFactory for the underlying implementation.
	LoggerFactory logging.LoggerFactory
}

// DTLSDialer establishes a DTLS connection as the active party over the
// session's unicast view. Implementations must block until the handshake
// completes or ctx expires.
type DTLSDialer interface {
	Dial(ctx context.Context, conn net.PacketConn, remote net.Addr, config DTLSConfig) (net.Conn, error)
}

// SCTPAssociation is the accepting side of an SCTP association.
type SCTPAssociation interface {
	// AcceptStream blocks until the peer opens a stream.
	AcceptStream() (*sctp.Stream, error)

	// Close aborts the association.
	Close() error
}

// SCTPStarter brings up an SCTP association in the server role over an
// established DTLS connection.
type SCTPStarter interface {
	Listen(conn net.Conn, loggerFactory logging.LoggerFactory) (SCTPAssociation, error)
}

// pionDTLSDialer is the production DTLSDialer backed by pion/dtls.
type pionDTLSDialer struct{}

func (pionDTLSDialer) Dial(ctx context.Context, conn net.PacketConn, remote net.Addr, config DTLSConfig) (net.Conn, error) {
	dc, err := dtls.Client(conn, remote, &dtls.Config{
		Certificates:       []tls.Certificate{config.Certificate},
		InsecureSkipVerify: true,
		VerifyPeerCertificate: func(rawCerts [][]byte, _ [][]*x509.Certificate) error {
			if len(rawCerts) == 0 {
				return ErrNoPeerCertificate
			}
			return config.VerifyPeer(rawCerts[0])
		},
		LoggerFactory: config.LoggerFactory,
	})
	if err != nil {
		return nil, err
	}

	if err := dc.HandshakeContext(ctx); err != nil {
		dc.Close()
		return nil, err
	}
	return dc, nil
}

// pionSCTPStarter is the production SCTPStarter backed by pion/sctp.
type pionSCTPStarter struct{}

func (pionSCTPStarter) Listen(conn net.Conn, loggerFactory logging.LoggerFactory) (SCTPAssociation, error) {
	return sctp.Server(sctp.Config{
		NetConn:       conn,
		LoggerFactory: loggerFactory,
	})
}
