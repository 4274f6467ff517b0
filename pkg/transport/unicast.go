package transport

import (
	"net"
	"sync"
	"time"

	"github.com/pion/transport/v3/packetio"
)

// UnicastView is a logical packet socket restricted to one remote peer,
// sharing the session's underlying UDP socket. Outbound writes always go to
// the view's current remote target, regardless of the address the consumer
// passes; inbound DTLS records are queued by the socket's dispatch loop.
//
// The remote target is mutable: when a higher-priority candidate arrives the
// DTLS consumer keeps its identity and the view simply redirects its
// packets. Views are created through Socket.AttachView.
type UnicastView struct {
	sock *Socket
	buf  *packetio.Buffer

	mu     sync.RWMutex
	remote *net.UDPAddr
}

var _ net.PacketConn = (*UnicastView)(nil)

func newUnicastView(sock *Socket, remote *net.UDPAddr) *UnicastView {
	return &UnicastView{
		sock:   sock,
		buf:    packetio.NewBuffer(),
		remote: remote,
	}
}

// SetRemote redirects outbound traffic to a new remote target.
func (v *UnicastView) SetRemote(remote *net.UDPAddr) {
	v.mu.Lock()
	v.remote = remote
	v.mu.Unlock()
}

// Remote returns the current remote target.
func (v *UnicastView) Remote() *net.UDPAddr {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.remote
}

// Deliver queues one inbound datagram for the view's consumer. The queue
// copies the payload.
func (v *UnicastView) Deliver(data []byte) error {
	_, err := v.buf.Write(data)
	return err
}

// ReadFrom implements net.PacketConn. The reported source is the current
// remote target.
func (v *UnicastView) ReadFrom(p []byte) (int, net.Addr, error) {
	n, err := v.buf.Read(p)
	if err != nil {
		return n, nil, err
	}
	return n, v.Remote(), nil
}

// WriteTo implements net.PacketConn. The addr argument is ignored; datagrams
// always go to the current remote target.
func (v *UnicastView) WriteTo(p []byte, _ net.Addr) (int, error) {
	remote := v.Remote()
	if remote == nil {
		return 0, ErrNoRemote
	}
	if err := v.sock.Send(p, remote); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close implements net.PacketConn. It releases the inbound queue but leaves
// the shared UDP socket open; the socket owns itself.
func (v *UnicastView) Close() error {
	return v.buf.Close()
}

// LocalAddr implements net.PacketConn.
func (v *UnicastView) LocalAddr() net.Addr {
	return v.sock.LocalAddr()
}

// SetDeadline implements net.PacketConn. Only the read direction is
// deadline-aware; writes on the shared socket do not block.
func (v *UnicastView) SetDeadline(t time.Time) error {
	return v.buf.SetReadDeadline(t)
}

// SetReadDeadline implements net.PacketConn.
func (v *UnicastView) SetReadDeadline(t time.Time) error {
	return v.buf.SetReadDeadline(t)
}

// SetWriteDeadline implements net.PacketConn.
func (v *UnicastView) SetWriteDeadline(time.Time) error {
	return nil
}
