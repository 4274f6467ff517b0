// Package endpoint holds the process-wide identity and the registry of live
// sessions. An Endpoint is created once with the server certificate, probes
// its public and internal IPv4 addresses on Start, and hands out sessions to
// the signalling layer.
package endpoint
