// Package session implements the per-connection protocol pipeline: it owns
// the UDP socket and sequences SDP negotiation, ICE connectivity checks, the
// DTLS handshake and the SCTP association over it, surfacing negotiated
// DataChannels to the application.
//
// The four protocol layers share the one socket. Inbound datagrams are
// demultiplexed by their first byte: STUN goes to the connectivity agent,
// DTLS records go to the unicast view feeding the DTLS conn. DTLS may not
// begin before an ICE binding has succeeded, and SCTP may not begin before
// DTLS is established; the State type tracks this progression.
//
// # Lifecycle
//
//	s, _ := session.New(cfg)
//	answer, _ := s.CreateAnswer(offerSDP)   // New → Offered → Listening
//	// trickled candidates via s.AppendCandidate
//	// first validated check: Listening → IceConnected, DTLS client starts
//	// DTLS established: → DtlsConnected, SCTP server starts
//	// SCTP up: → SctpReady, OnChannel fires per incoming stream
//	s.Close()
package session
