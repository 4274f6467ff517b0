package ice

import (
	"net"
	"testing"
	"time"

	"github.com/pion/stun/v3"
)

type sentPacket struct {
	data []byte
	addr net.Addr
}

func newTestAgent(t *testing.T, sent chan sentPacket, onValidated func(*net.UDPAddr)) (*Agent, *Set) {
	t.Helper()

	set := NewSet()
	agent, err := NewAgent(AgentConfig{
		LocalUfrag:  "Loca",
		LocalPwd:    "localpasswordlocalpass",
		PeerUfrag:   "Peer",
		PeerPwd:     "peerpasswordpeerpasswo",
		Candidates:  set,
		Send:        func(data []byte, addr net.Addr) error { sent <- sentPacket{data, addr}; return nil },
		OnValidated: onValidated,
		// Fast pacing keeps the tests quick.
		CheckInterval: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewAgent() error = %v", err)
	}
	return agent, set
}

func TestNewAgentValidation(t *testing.T) {
	set := NewSet()
	send := func([]byte, net.Addr) error { return nil }

	if _, err := NewAgent(AgentConfig{Candidates: set}); err != ErrNoSender {
		t.Errorf("NewAgent() error = %v, want %v", err, ErrNoSender)
	}
	if _, err := NewAgent(AgentConfig{Send: send}); err != ErrNoCandidates {
		t.Errorf("NewAgent() error = %v, want %v", err, ErrNoCandidates)
	}
}

// An outgoing check carries the reversed username, aggressive nomination and
// a valid peer-password integrity.
func TestOutgoingCheck(t *testing.T) {
	sent := make(chan sentPacket, 16)
	agent, set := newTestAgent(t, sent, nil)
	set.Push("127.0.0.1", 3478, 100)

	if err := agent.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer agent.Stop()

	var pkt sentPacket
	select {
	case pkt = <-sent:
	case <-time.After(time.Second):
		t.Fatal("no binding request emitted")
	}

	m := &stun.Message{Raw: pkt.data}
	if err := m.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if m.Type != stun.BindingRequest {
		t.Fatalf("message type = %s, want binding request", m.Type)
	}

	var username stun.Username
	if err := username.GetFrom(m); err != nil {
		t.Fatalf("GetFrom(username) error = %v", err)
	}
	if string(username) != "Peer:Loca" {
		t.Errorf("USERNAME = %q, want %q", username, "Peer:Loca")
	}

	if !m.Contains(stun.AttrUseCandidate) {
		t.Error("USE-CANDIDATE attribute missing")
	}
	if !m.Contains(stun.AttrICEControlling) {
		t.Error("ICE-CONTROLLING attribute missing")
	}
	if !m.Contains(stun.AttrPriority) {
		t.Error("PRIORITY attribute missing")
	}

	if err := stun.NewShortTermIntegrity("peerpasswordpeerpasswo").Check(m); err != nil {
		t.Errorf("request does not validate against the peer password: %v", err)
	}
	if err := stun.Fingerprint.Check(m); err != nil {
		t.Errorf("request fingerprint invalid: %v", err)
	}

	if udp, ok := pkt.addr.(*net.UDPAddr); !ok || udp.Port != 3478 {
		t.Errorf("check sent to %v, want port 3478", pkt.addr)
	}
}

// No checks are emitted while the candidate set is empty.
func TestNoCheckWithoutCandidates(t *testing.T) {
	sent := make(chan sentPacket, 16)
	agent, _ := newTestAgent(t, sent, nil)

	if err := agent.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer agent.Stop()

	select {
	case pkt := <-sent:
		t.Errorf("unexpected datagram sent to %v", pkt.addr)
	case <-time.After(50 * time.Millisecond):
	}
}

// A valid incoming binding request is answered with a success response
// mirroring the sender's transport address.
func TestIncomingBindingRequest(t *testing.T) {
	sent := make(chan sentPacket, 16)
	agent, _ := newTestAgent(t, sent, nil)

	req, err := stun.Build(
		stun.TransactionID,
		stun.BindingRequest,
		stun.NewUsername("Loca:Peer"),
		stun.NewShortTermIntegrity("localpasswordlocalpass"),
		stun.Fingerprint,
	)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	from := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 4000}
	agent.HandleDatagram(req.Raw, from)

	var pkt sentPacket
	select {
	case pkt = <-sent:
	case <-time.After(time.Second):
		t.Fatal("no binding response emitted")
	}

	resp := &stun.Message{Raw: pkt.data}
	if err := resp.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if resp.Type != stun.BindingSuccess {
		t.Fatalf("response type = %s, want binding success", resp.Type)
	}
	if resp.TransactionID != req.TransactionID {
		t.Error("response transaction ID does not match request")
	}

	var mapped stun.XORMappedAddress
	if err := mapped.GetFrom(resp); err != nil {
		t.Fatalf("GetFrom(xor-mapped) error = %v", err)
	}
	if !mapped.IP.Equal(from.IP) || mapped.Port != from.Port {
		t.Errorf("XOR-MAPPED-ADDRESS = %v:%d, want %v", mapped.IP, mapped.Port, from)
	}

	if err := stun.NewShortTermIntegrity("localpasswordlocalpass").Check(resp); err != nil {
		t.Errorf("response does not validate against the local password: %v", err)
	}
}

// Requests failing validation are dropped without a response.
func TestIncomingBindingRequestDropped(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T) []byte
	}{
		{
			name: "wrong username",
			build: func(t *testing.T) []byte {
				m, err := stun.Build(
					stun.TransactionID,
					stun.BindingRequest,
					stun.NewUsername("Wrng:Peer"),
					stun.NewShortTermIntegrity("localpasswordlocalpass"),
					stun.Fingerprint,
				)
				if err != nil {
					t.Fatalf("Build() error = %v", err)
				}
				return m.Raw
			},
		},
		{
			name: "wrong password",
			build: func(t *testing.T) []byte {
				m, err := stun.Build(
					stun.TransactionID,
					stun.BindingRequest,
					stun.NewUsername("Loca:Peer"),
					stun.NewShortTermIntegrity("notthelocalpassword000"),
					stun.Fingerprint,
				)
				if err != nil {
					t.Fatalf("Build() error = %v", err)
				}
				return m.Raw
			},
		},
		{
			name: "no fingerprint",
			build: func(t *testing.T) []byte {
				m, err := stun.Build(
					stun.TransactionID,
					stun.BindingRequest,
					stun.NewUsername("Loca:Peer"),
					stun.NewShortTermIntegrity("localpasswordlocalpass"),
				)
				if err != nil {
					t.Fatalf("Build() error = %v", err)
				}
				return m.Raw
			},
		},
		{
			name: "garbage",
			build: func(t *testing.T) []byte {
				return []byte{0x00, 0x01, 0x02}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sent := make(chan sentPacket, 16)
			agent, _ := newTestAgent(t, sent, nil)

			from := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 5), Port: 4000}
			agent.HandleDatagram(tt.build(t), from)

			select {
			case pkt := <-sent:
				t.Errorf("unexpected response sent to %v", pkt.addr)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}

// The first matching success response fires OnValidated exactly once.
func TestBindingSuccessValidates(t *testing.T) {
	sent := make(chan sentPacket, 16)
	validated := make(chan *net.UDPAddr, 2)
	agent, set := newTestAgent(t, sent, func(addr *net.UDPAddr) { validated <- addr })
	set.Push("127.0.0.1", 3478, 100)

	if err := agent.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer agent.Stop()

	var pkt sentPacket
	select {
	case pkt = <-sent:
	case <-time.After(time.Second):
		t.Fatal("no binding request emitted")
	}
	req := &stun.Message{Raw: pkt.data}
	if err := req.Decode(); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	resp, err := stun.Build(
		stun.NewTransactionIDSetter(req.TransactionID),
		stun.BindingSuccess,
		&stun.XORMappedAddress{IP: net.IPv4(127, 0, 0, 1), Port: 9000},
		stun.NewShortTermIntegrity("peerpasswordpeerpasswo"),
		stun.Fingerprint,
	)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	agent.HandleDatagram(resp.Raw, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 3478})

	select {
	case addr := <-validated:
		if addr.Port != 3478 {
			t.Errorf("validated remote = %v, want port 3478", addr)
		}
	case <-time.After(time.Second):
		t.Fatal("OnValidated not fired")
	}

	// Replaying the response must not fire the callback again.
	agent.HandleDatagram(resp.Raw, &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 3478})
	select {
	case <-validated:
		t.Error("OnValidated fired twice")
	case <-time.After(50 * time.Millisecond):
	}
}
