package sdp

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/pion/sdp/v3"
)

// Fingerprint is the hash declared in an a=fingerprint line.
type Fingerprint struct {
	Type string // hash algorithm name, e.g. "sha-256"
	Hash string // colon-separated hex digest
}

// Candidate is an in-line ICE candidate from an a=candidate line.
// Only IPv4 candidates are retained.
type Candidate struct {
	IP       string
	Port     int
	Priority uint32
	Type     string // "host", "srflx", "prflx" or "relay"
}

// Media is the endpoint's view of one m= section.
type Media struct {
	Protocol    string // transport protocol, e.g. "UDP/DTLS/SCTP"
	Mid         string
	ICEUfrag    string
	ICEPwd      string
	Fingerprint *Fingerprint // per-section fingerprint, may be nil
	Candidates  []Candidate
}

// Group is an a=group line, e.g. "BUNDLE data".
type Group struct {
	Semantics string
	Mids      []string
}

// Offer is the structured view of a parsed SDP offer.
type Offer struct {
	Media       []Media
	Groups      []Group
	Fingerprint *Fingerprint // session-level fingerprint, may be nil
}

// ParseOffer parses the text of an SDP offer.
func ParseOffer(raw string) (*Offer, error) {
	var desc sdp.SessionDescription
	if err := desc.Unmarshal([]byte(raw)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOffer, err)
	}

	o := &Offer{}

	for _, attr := range desc.Attributes {
		switch attr.Key {
		case "group":
			if g, ok := parseGroup(attr.Value); ok {
				o.Groups = append(o.Groups, g)
			}
		case "fingerprint":
			if fp, ok := parseFingerprint(attr.Value); ok && o.Fingerprint == nil {
				o.Fingerprint = fp
			}
		}
	}

	for _, m := range desc.MediaDescriptions {
		media := Media{
			Protocol: strings.Join(m.MediaName.Protos, "/"),
		}
		for _, attr := range m.Attributes {
			switch attr.Key {
			case "mid":
				media.Mid = attr.Value
			case "ice-ufrag":
				media.ICEUfrag = attr.Value
			case "ice-pwd":
				media.ICEPwd = attr.Value
			case "fingerprint":
				if fp, ok := parseFingerprint(attr.Value); ok && media.Fingerprint == nil {
					media.Fingerprint = fp
				}
			case "candidate":
				if c, ok := parseCandidate(attr.Value); ok {
					media.Candidates = append(media.Candidates, c)
				}
			}
		}
		o.Media = append(o.Media, media)
	}

	return o, nil
}

// SelectData returns the first media section negotiating DTLS/SCTP.
func (o *Offer) SelectData() (*Media, error) {
	for i := range o.Media {
		if strings.Contains(o.Media[i].Protocol, "DTLS/SCTP") {
			return &o.Media[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no DTLS/SCTP media section", ErrInvalidOffer)
}

// BundleMid returns the mid of the first BUNDLE group entry, or "data" when
// the offer carries no group.
func (o *Offer) BundleMid() string {
	if len(o.Groups) > 0 && len(o.Groups[0].Mids) > 0 {
		return o.Groups[0].Mids[0]
	}
	return "data"
}

// PeerFingerprint returns the fingerprint to pin the peer certificate
// against: the session-level one if present, else the media section's.
func (o *Offer) PeerFingerprint(m *Media) (*Fingerprint, error) {
	if o.Fingerprint != nil {
		return o.Fingerprint, nil
	}
	if m.Fingerprint != nil {
		return m.Fingerprint, nil
	}
	return nil, ErrMissingFingerprint
}

// parseGroup parses "BUNDLE data …" into a Group.
func parseGroup(value string) (Group, bool) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return Group{}, false
	}
	return Group{Semantics: fields[0], Mids: fields[1:]}, true
}

// parseFingerprint parses "sha-256 AB:CD:…".
func parseFingerprint(value string) (*Fingerprint, bool) {
	fields := strings.Fields(value)
	if len(fields) != 2 {
		return nil, false
	}
	return &Fingerprint{Type: fields[0], Hash: fields[1]}, true
}

// parseCandidate parses the value of an a=candidate line:
//
//	<foundation> <component> <transport> <priority> <ip> <port> typ <type> …
//
// Non-IPv4 and malformed candidates are skipped.
func parseCandidate(value string) (Candidate, bool) {
	fields := strings.Fields(value)
	if len(fields) < 8 || !strings.EqualFold(fields[2], "udp") || fields[6] != "typ" {
		return Candidate{}, false
	}

	priority, err := strconv.ParseUint(fields[3], 10, 32)
	if err != nil {
		return Candidate{}, false
	}
	port, err := strconv.Atoi(fields[5])
	if err != nil || port < 1 || port > 65535 {
		return Candidate{}, false
	}

	ip := net.ParseIP(fields[4])
	if ip == nil || ip.To4() == nil {
		return Candidate{}, false
	}

	return Candidate{
		IP:       ip.String(),
		Port:     port,
		Priority: uint32(priority),
		Type:     fields[7],
	}, true
}
