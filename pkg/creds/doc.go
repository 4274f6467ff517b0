// Package creds provides the per-session ICE credentials and the certificate
// fingerprints exchanged in SDP.
//
// ICE username fragments and passwords are drawn from the ICE character set
// (RFC 8445 Section 5.3) using a cryptographically strong RNG. Certificate
// fingerprints are SHA-256 digests of the DER certificate body, formatted as
// the colon-separated uppercase hex string used by a=fingerprint lines.
package creds
