// Package sdp implements the session description handling for the
// data-channel endpoint: parsing browser offers into a structured view and
// serialising the fixed-shape application/DTLS-SCTP answer.
//
// The wire parsing and marshalling is delegated to github.com/pion/sdp/v3;
// this package layers the endpoint's view on top: ICE credentials,
// fingerprints, BUNDLE groups and in-line ICE candidates.
package sdp
