// Package ice implements the connectivity-check subset used by the
// data-channel endpoint: a priority-ordered remote candidate set and a STUN
// agent that answers incoming binding requests and emits periodic outgoing
// checks with aggressive nomination.
//
// The endpoint always assumes the controlling role with a fixed tie-breaker,
// which is sufficient against a browser peer in the controlled role. STUN
// message encoding and short-term credential integrity come from
// github.com/pion/stun/v3.
package ice
