// Package discovery publishes the signalling HTTP service via DNS-SD so
// local-network clients can find the endpoint without configuration.
package discovery
