package ice

import (
	"encoding/binary"

	"github.com/pion/stun/v3"
)

// Wire constants advertised by the endpoint.
const (
	// ControllingTieBreaker is the fixed ICE-CONTROLLING value. The
	// endpoint always assumes the controlling role against a browser
	// peer, so the tie-breaker never has to win a comparison.
	ControllingTieBreaker uint64 = 0xffaecc81e3dae860

	// HostPriority is the priority advertised for the host candidate and
	// in the PRIORITY attribute of outgoing checks.
	HostPriority uint32 = 2113937151

	// ServerReflexivePriority is the priority advertised for the
	// server-reflexive candidate.
	ServerReflexivePriority uint32 = 1677729535
)

// useCandidate adds an empty USE-CANDIDATE attribute (aggressive
// nomination).
type useCandidate struct{}

func (useCandidate) AddTo(m *stun.Message) error {
	m.Add(stun.AttrUseCandidate, nil)
	return nil
}

// attrControlling adds the ICE-CONTROLLING tie-breaker.
type attrControlling uint64

func (c attrControlling) AddTo(m *stun.Message) error {
	v := make([]byte, 8)
	binary.BigEndian.PutUint64(v, uint64(c))
	m.Add(stun.AttrICEControlling, v)
	return nil
}

// attrPriority adds the PRIORITY attribute.
type attrPriority uint32

func (p attrPriority) AddTo(m *stun.Message) error {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, uint32(p))
	m.Add(stun.AttrPriority, v)
	return nil
}
