package transport

import (
	"bytes"
	"net"
	"testing"
	"time"
)

type stunPacket struct {
	data []byte
	from net.Addr
}

// newSocketPair returns a dispatching socket and a raw peer socket.
func newSocketPair(t *testing.T) (*Socket, chan stunPacket, net.PacketConn) {
	t.Helper()

	stunCh := make(chan stunPacket, 16)
	sock, err := Listen(SocketConfig{
		ListenAddr: "127.0.0.1:0",
		STUN: func(data []byte, from net.Addr) {
			stunCh <- stunPacket{data: append([]byte{}, data...), from: from}
		},
	})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { sock.Close() })

	peer, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	t.Cleanup(func() { peer.Close() })

	return sock, stunCh, peer
}

func TestListen(t *testing.T) {
	t.Run("without handler", func(t *testing.T) {
		if _, err := Listen(SocketConfig{ListenAddr: "127.0.0.1:0"}); err != ErrNoHandler {
			t.Errorf("Listen() error = %v, want %v", err, ErrNoHandler)
		}
	})

	t.Run("with injected conn", func(t *testing.T) {
		conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("ListenPacket() error = %v", err)
		}
		sock, err := Listen(SocketConfig{
			Conn: conn,
			STUN: func([]byte, net.Addr) {},
		})
		if err != nil {
			t.Fatalf("Listen() error = %v", err)
		}
		defer sock.Close()

		if sock.LocalAddr().String() != conn.LocalAddr().String() {
			t.Error("Listen() did not use injected conn")
		}
		if sock.Port() == 0 {
			t.Error("Port() = 0")
		}
	})
}

// Inbound datagrams are routed by their first byte: STUN to the handler,
// DTLS to the attached view, everything else dropped.
func TestSocketDispatch(t *testing.T) {
	sock, stunCh, peer := newSocketPair(t)

	stunish := []byte{0x00, 0x01, 0x00, 0x00}
	if _, err := peer.WriteTo(stunish, sock.LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	select {
	case got := <-stunCh:
		if !bytes.Equal(got.data, stunish) {
			t.Errorf("STUN handler received %v, want %v", got.data, stunish)
		}
		if got.from == nil {
			t.Error("STUN handler received no source address")
		}
	case <-time.After(time.Second):
		t.Fatal("STUN datagram not dispatched")
	}

	// A DTLS record before AttachView has nowhere to go; it must be
	// dropped without breaking the loop.
	dtlsish := []byte{22, 0xfe, 0xfd}
	if _, err := peer.WriteTo(dtlsish, sock.LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	view := sock.AttachView(peer.LocalAddr().(*net.UDPAddr))
	if _, err := peer.WriteTo(dtlsish, sock.LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}

	buf := make([]byte, 64)
	view.SetReadDeadline(time.Now().Add(time.Second))
	n, from, err := view.ReadFrom(buf)
	if err != nil {
		t.Fatalf("view ReadFrom() error = %v", err)
	}
	if !bytes.Equal(buf[:n], dtlsish) {
		t.Errorf("view received %v, want %v", buf[:n], dtlsish)
	}
	if from.String() != peer.LocalAddr().String() {
		t.Errorf("view source = %v, want %v", from, peer.LocalAddr())
	}

	// Outside both ranges: dropped, the STUN handler stays quiet.
	if _, err := peer.WriteTo([]byte{0x80, 0x00}, sock.LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	select {
	case got := <-stunCh:
		t.Errorf("unexpected STUN dispatch of %v", got.data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSocketSend(t *testing.T) {
	sock, _, peer := newSocketPair(t)

	payload := []byte{0x00, 0x01, 0x02}
	if err := sock.Send(payload, peer.LocalAddr()); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	buf := make([]byte, 64)
	peer.SetReadDeadline(time.Now().Add(time.Second))
	n, _, err := peer.ReadFrom(buf)
	if err != nil {
		t.Fatalf("peer ReadFrom() error = %v", err)
	}
	if !bytes.Equal(buf[:n], payload) {
		t.Errorf("peer received %v, want %v", buf[:n], payload)
	}

	t.Run("nil address", func(t *testing.T) {
		if err := sock.Send(payload, nil); err != ErrInvalidAddress {
			t.Errorf("Send() error = %v, want %v", err, ErrInvalidAddress)
		}
	})

	t.Run("oversized", func(t *testing.T) {
		big := make([]byte, MaxDatagramSize+1)
		if err := sock.Send(big, peer.LocalAddr()); err != ErrDatagramTooLarge {
			t.Errorf("Send() error = %v, want %v", err, ErrDatagramTooLarge)
		}
	})
}

func TestSocketClose(t *testing.T) {
	sock, _, peer := newSocketPair(t)

	if err := sock.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := sock.Close(); err != ErrClosed {
		t.Errorf("Close() second call error = %v, want %v", err, ErrClosed)
	}
	if err := sock.Send([]byte{0x00}, peer.LocalAddr()); err != ErrClosed {
		t.Errorf("Send() after Close error = %v, want %v", err, ErrClosed)
	}
}

// AttachView creates the view once and afterwards only retargets it.
func TestAttachViewRetargets(t *testing.T) {
	sock, _, first := newSocketPair(t)

	second, err := net.ListenPacket("udp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer second.Close()

	view := sock.AttachView(first.LocalAddr().(*net.UDPAddr))
	again := sock.AttachView(second.LocalAddr().(*net.UDPAddr))
	if view != again {
		t.Fatal("AttachView() created a second view")
	}
	if got := view.Remote().String(); got != second.LocalAddr().String() {
		t.Errorf("Remote() = %s, want %s", got, second.LocalAddr())
	}

	// Writes follow the new target, whatever address the caller passes.
	if _, err := view.WriteTo([]byte("redirected"), first.LocalAddr()); err != nil {
		t.Fatalf("WriteTo() error = %v", err)
	}
	buf := make([]byte, 64)
	second.SetReadDeadline(time.Now().Add(time.Second))
	n, _, err := second.ReadFrom(buf)
	if err != nil {
		t.Fatalf("second peer ReadFrom() error = %v", err)
	}
	if string(buf[:n]) != "redirected" {
		t.Errorf("second peer received %q", buf[:n])
	}
}
