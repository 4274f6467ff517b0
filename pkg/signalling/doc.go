// Package signalling binds the endpoint's offer/candidate operations to a
// request/response transport. The Facade is transport-agnostic; Routes
// mounts it on a gin router as the JSON-over-HTTP surface browsers talk to:
//
//	POST /offer               {type:"offer", sdp} → {type:"answer", sdp}
//	POST /candidate           {ip, port, username, priority} → empty
//	GET  /candidates/{b64}    → [{candidate, sdpMLineIndex, sdpMid, usernameFragment}, …]
package signalling
