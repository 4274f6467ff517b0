package transport

import (
	"net"
	"testing"
	"time"
)

func newViewSocket(t *testing.T) *Socket {
	t.Helper()

	sock, err := Listen(SocketConfig{
		ListenAddr: "127.0.0.1:0",
		STUN:       func([]byte, net.Addr) {},
	})
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}
	t.Cleanup(func() { sock.Close() })
	return sock
}

func TestUnicastViewNoRemote(t *testing.T) {
	sock := newViewSocket(t)

	view := sock.AttachView(nil)
	if _, err := view.WriteTo([]byte("x"), nil); err != ErrNoRemote {
		t.Errorf("WriteTo() error = %v, want %v", err, ErrNoRemote)
	}
}

func TestUnicastViewDeliver(t *testing.T) {
	sock := newViewSocket(t)

	remote := &net.UDPAddr{IP: net.IPv4(192, 0, 2, 9), Port: 4444}
	view := sock.AttachView(remote)

	if err := view.Deliver([]byte{0x16, 0xfe, 0xfd}); err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	buf := make([]byte, 64)
	view.SetReadDeadline(time.Now().Add(time.Second))
	n, from, err := view.ReadFrom(buf)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	if n != 3 || buf[0] != 0x16 {
		t.Errorf("ReadFrom() = %v", buf[:n])
	}
	if from.String() != remote.String() {
		t.Errorf("ReadFrom() source = %v, want %v", from, remote)
	}
}

func TestUnicastViewReadDeadline(t *testing.T) {
	sock := newViewSocket(t)

	view := sock.AttachView(&net.UDPAddr{IP: net.IPv4(192, 0, 2, 9), Port: 4444})
	view.SetReadDeadline(time.Now().Add(20 * time.Millisecond))

	buf := make([]byte, 64)
	if _, _, err := view.ReadFrom(buf); err == nil {
		t.Error("ReadFrom() expected deadline error on empty queue")
	}
}

func TestUnicastViewLocalAddr(t *testing.T) {
	sock := newViewSocket(t)
	view := sock.AttachView(nil)

	if view.LocalAddr().String() != sock.LocalAddr().String() {
		t.Errorf("LocalAddr() = %v, want %v", view.LocalAddr(), sock.LocalAddr())
	}
}
