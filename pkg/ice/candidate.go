package ice

import (
	"fmt"
	"net"
)

// Candidate is a remote transport address learned from SDP or trickle
// signalling.
type Candidate struct {
	Address  string
	Port     int
	Priority uint32
}

// UDPAddr returns the candidate as a resolved UDP address.
func (c Candidate) UDPAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP(c.Address), Port: c.Port}
}

// String implements fmt.Stringer.
func (c Candidate) String() string {
	return fmt.Sprintf("%s:%d (prio %d)", c.Address, c.Port, c.Priority)
}
