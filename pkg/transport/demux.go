package transport

// First-byte demultiplexing ranges (RFC 7983). STUN and DTLS share the
// session's UDP socket; every inbound datagram is classified by its leading
// byte before being dispatched.

// IsSTUN reports whether the datagram is a STUN message (first byte 0..3).
func IsSTUN(data []byte) bool {
	return len(data) > 0 && data[0] < 4
}

// IsDTLS reports whether the datagram is a DTLS record (first byte 20..63).
func IsDTLS(data []byte) bool {
	return len(data) > 0 && data[0] >= 20 && data[0] <= 63
}
