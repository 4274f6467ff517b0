package sdp

// CandidateType classifies an ICE candidate for priority computation.
type CandidateType string

// Candidate types (RFC 8445 Section 5.1.1).
const (
	CandidateHost            CandidateType = "host"
	CandidateServerReflexive CandidateType = "srflx"
	CandidatePeerReflexive   CandidateType = "prflx"
	CandidateRelay           CandidateType = "relay"
)

// typePreference returns the RFC 8445 Section 5.1.2.2 type preference.
func (t CandidateType) typePreference() uint32 {
	switch t {
	case CandidateHost:
		return 126
	case CandidateServerReflexive:
		return 64
	case CandidatePeerReflexive:
		return 16
	case CandidateRelay:
		return 8
	default:
		return 0
	}
}

// localPreference is 65535 for host candidates, 0 otherwise.
func (t CandidateType) localPreference() uint32 {
	if t == CandidateHost {
		return 65535
	}
	return 0
}

// Priority computes the RFC 8445 Section 5.1.2.1 candidate priority for
// component 1:
//
//	priority = 2^24·typePref + 2^8·localPref + (256 − componentID)
func Priority(t CandidateType) uint32 {
	const componentID = 1
	return t.typePreference()<<24 | t.localPreference()<<8 | (256 - componentID)
}
