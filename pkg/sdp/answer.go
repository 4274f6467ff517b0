package sdp

import (
	"fmt"
	"strings"

	"github.com/pion/sdp/v3"
)

// Fixed origin of every generated answer. Browsers treat the origin as
// opaque; a constant session ID keeps answers reproducible.
const (
	answerSessionID      = 3497579305088229251
	answerSessionVersion = 2
)

// SCTPPort is the SCTP port advertised in the answer's sctpmap line.
const SCTPPort = 5000

// AnswerCandidate is one candidate advertised in a generated answer.
// A zero Priority is filled in from the RFC 8445 formula for the type.
type AnswerCandidate struct {
	IP       string
	Port     int
	Type     CandidateType
	Priority uint32
}

// AnswerParams carries everything needed to serialise an answer.
type AnswerParams struct {
	Username    string
	Password    string
	Fingerprint string // local certificate fingerprint, SHA-256 colon-hex
	Mid         string
	Candidates  []AnswerCandidate
}

// CreateAnswer serialises the fixed-shape data-channel answer: a single
// m=application section carrying DTLS/SCTP with a=setup:active, the local
// ICE credentials and fingerprint, and one a=candidate line per candidate.
func CreateAnswer(p AnswerParams) (string, error) {
	if len(p.Candidates) == 0 {
		return "", ErrNoCandidates
	}

	desc := sdp.SessionDescription{
		Version: 0,
		Origin: sdp.Origin{
			Username:       "-",
			SessionID:      answerSessionID,
			SessionVersion: answerSessionVersion,
			NetworkType:    "IN",
			AddressType:    "IP4",
			UnicastAddress: "127.0.0.1",
		},
		SessionName:      "-",
		TimeDescriptions: []sdp.TimeDescription{{}},
		Attributes: []sdp.Attribute{
			{Key: "group", Value: "BUNDLE " + p.Mid},
			{Key: "msid-semantic", Value: " WMS"},
		},
	}

	media := &sdp.MediaDescription{
		MediaName: sdp.MediaName{
			Media:   "application",
			Port:    sdp.RangedPort{Value: 9},
			Protos:  []string{"DTLS", "SCTP"},
			Formats: []string{fmt.Sprintf("%d", SCTPPort)},
		},
		ConnectionInformation: &sdp.ConnectionInformation{
			NetworkType: "IN",
			AddressType: "IP4",
			Address:     &sdp.Address{Address: "0.0.0.0"},
		},
		Attributes: []sdp.Attribute{
			{Key: "setup", Value: "active"},
			{Key: "ice-ufrag", Value: p.Username},
			{Key: "ice-pwd", Value: p.Password},
			{Key: "mid", Value: p.Mid},
			{Key: "fingerprint", Value: "sha-256 " + p.Fingerprint},
			{Key: "sctpmap", Value: fmt.Sprintf("%d webrtc-datachannel 1024", SCTPPort)},
		},
	}

	first := p.Candidates[0]
	for i, c := range p.Candidates {
		var related *AnswerCandidate
		if i > 0 {
			related = &first
		}
		media.Attributes = append(media.Attributes, sdp.Attribute{
			Key:   "candidate",
			Value: candidateValue(i, c, related),
		})
	}
	desc.MediaDescriptions = append(desc.MediaDescriptions, media)

	raw, err := desc.Marshal()
	if err != nil {
		return "", fmt.Errorf("sdp: marshaling answer: %w", err)
	}
	return string(raw), nil
}

// CandidateLine formats a candidate as the "candidate:…" string used both in
// generated SDP and in trickle signalling responses.
func CandidateLine(index int, c AnswerCandidate, related *AnswerCandidate) string {
	return "candidate:" + candidateValue(index, c, related)
}

// candidateValue formats the value of an a=candidate attribute. The
// foundation is the candidate's index; when related is non-nil (CreateAnswer
// passes the first candidate for every later one) raddr/rport reference it.
func candidateValue(index int, c AnswerCandidate, related *AnswerCandidate) string {
	priority := c.Priority
	if priority == 0 {
		priority = Priority(c.Type)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d 1 udp %d %s %d typ %s", index, priority, c.IP, c.Port, c.Type)
	if related != nil {
		fmt.Fprintf(&b, " raddr %s rport %d", related.IP, related.Port)
	}
	return b.String()
}
