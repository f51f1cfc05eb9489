// Package poller multiplexes readiness of non-blocking sockets and keeps the
// registry of connections the reactor is waiting on.
package poller

import (
	"github.com/valyala/bytebufferpool"
)

// Interest is the direction a connection is waiting for.
type Interest uint8

const (
	Read Interest = iota + 1
	Write
)

func (i Interest) String() string {
	switch i {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return "none"
	}
}

// Conn is a socket tracked by the reactor. A Conn is owned by at most one
// worker at a time: the reactor hands it off only after unregistering it.
type Conn struct {
	// Fd is the socket descriptor, -1 once closed.
	Fd int

	// IsAccept marks the listening socket.
	IsAccept bool

	// Peer is the remote IP address.
	Peer string

	// ClientID identifies the client in logs. It defaults to Peer.
	ClientID string

	// Out holds the serialized response while the connection waits for
	// write readiness. Sent counts the bytes of Out already written.
	Out  *bytebufferpool.ByteBuffer
	Sent int
}

// NewConn wraps an accepted socket.
func NewConn(fd int, peer string) *Conn {
	return &Conn{Fd: fd, Peer: peer, ClientID: peer}
}

// Pending returns the part of Out not yet written.
func (c *Conn) Pending() []byte {
	if c.Out == nil || c.Sent >= c.Out.Len() {
		return nil
	}
	return c.Out.B[c.Sent:]
}

// Release returns Out to the pool.
func (c *Conn) Release() {
	if c.Out != nil {
		bytebufferpool.Put(c.Out)
		c.Out = nil
		c.Sent = 0
	}
}

// Event reports one ready connection.
type Event struct {
	Conn     *Conn
	Interest Interest
}
