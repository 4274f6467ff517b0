// Package transport provides the datagram plumbing under a session: a UDP
// socket whose read loop performs the RFC 7983 first-byte dispatch — STUN
// messages to the session's connectivity agent, DTLS records into the
// unicast view feeding the DTLS consumer — and the view itself, a logical
// per-peer packet conn with a retargetable remote.
package transport
