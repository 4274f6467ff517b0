package signalling

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/pion/logging"

	"github.com/peerd/peerd/pkg/endpoint"
	"github.com/peerd/peerd/pkg/sdp"
)

// OfferRequest is the body of an offer operation.
type OfferRequest struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// AnswerResponse is the reply to an offer.
type AnswerResponse struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

// CandidateRequest is the body of a trickled candidate.
type CandidateRequest struct {
	IP       string `json:"ip"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Priority uint32 `json:"priority"`
}

// CandidateEntry is one element of the candidates listing.
type CandidateEntry struct {
	Candidate        string `json:"candidate"`
	SDPMLineIndex    int    `json:"sdpMLineIndex"`
	SDPMid           string `json:"sdpMid"`
	UsernameFragment string `json:"usernameFragment"`
}

// FacadeConfig configures a Facade.
type FacadeConfig struct {
	// Endpoint is the session registry the façade operates on. Required.
	Endpoint *endpoint.Endpoint

	// OnCandidate is called after a trickled candidate has been applied.
	OnCandidate func(sessionID string, c CandidateRequest)

	// LoggerFactory is the factory for creating loggers.
	// If nil, the default factory is used.
	LoggerFactory logging.LoggerFactory
}

// Facade exposes the three signalling operations independently of any
// transport.
type Facade struct {
	config FacadeConfig
	log    logging.LeveledLogger
}

// NewFacade creates a signalling façade over an endpoint.
func NewFacade(config FacadeConfig) (*Facade, error) {
	if config.Endpoint == nil {
		return nil, fmt.Errorf("%w: no endpoint", ErrBadRequest)
	}
	lf := config.LoggerFactory
	if lf == nil {
		lf = logging.NewDefaultLoggerFactory()
	}
	return &Facade{config: config, log: lf.NewLogger("signalling")}, nil
}

// Offer creates a session for the offer and returns its answer. The session
// is torn down again if the offer turns out to be unusable.
func (f *Facade) Offer(ctx context.Context, req OfferRequest) (*AnswerResponse, error) {
	if req.Type != "offer" {
		return nil, fmt.Errorf("%w: type %q, want \"offer\"", ErrBadRequest, req.Type)
	}

	sess, err := f.config.Endpoint.CreateSession()
	if err != nil {
		return nil, err
	}

	answer, err := sess.CreateAnswer(req.SDP)
	if err != nil {
		sess.Close()
		return nil, err
	}

	f.log.Infof("answered offer with session %s (peer %s)", sess.ID(), sess.PeerUfrag())
	return &AnswerResponse{Type: "answer", SDP: answer}, nil
}

// Candidate applies a trickled candidate to the session whose peer ufrag
// matches. Unknown usernames are acknowledged and dropped; trickle is
// fire-and-forget.
func (f *Facade) Candidate(req CandidateRequest) error {
	sess := f.config.Endpoint.FindByPeerUfrag(req.Username)
	if sess == nil {
		f.log.Warnf("dropping candidate for unknown peer %q", req.Username)
		return nil
	}

	if err := sess.AppendCandidate(req.IP, req.Port, req.Priority); err != nil {
		f.log.Warnf("dropping candidate for session %s: %v", sess.ID(), err)
		return nil
	}

	if f.config.OnCandidate != nil {
		f.config.OnCandidate(sess.ID(), req)
	}
	return nil
}

// Candidates returns the two advertised candidate lines for the session
// identified by the base64-encoded peer username fragment.
func (f *Facade) Candidates(usernameBase64 string) ([]CandidateEntry, error) {
	raw, err := base64.StdEncoding.DecodeString(usernameBase64)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}

	sess := f.config.Endpoint.FindByPeerUfrag(string(raw))
	if sess == nil {
		return nil, ErrSessionNotFound
	}

	advertised := sess.AdvertisedCandidates()
	entries := make([]CandidateEntry, 0, len(advertised))
	for i, c := range advertised {
		var related *sdp.AnswerCandidate
		if i > 0 {
			related = &advertised[0]
		}
		entries = append(entries, CandidateEntry{
			Candidate:        sdp.CandidateLine(i, c, related),
			SDPMLineIndex:    0,
			SDPMid:           "data",
			UsernameFragment: sess.LocalUfrag(),
		})
	}
	return entries, nil
}
