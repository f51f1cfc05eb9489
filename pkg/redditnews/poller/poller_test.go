//go:build linux

package poller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func socketPair(t *testing.T) (*Conn, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	require.NoError(t, err)
	c := NewConn(fds[0], "local")
	t.Cleanup(func() {
		c.Close()
		unix.Close(fds[1])
	})
	return c, fds[1]
}

func newPoller(t *testing.T) *Poller {
	t.Helper()
	p, err := New(0)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPollReadReady(t *testing.T) {
	p := newPoller(t)
	c, peer := socketPair(t)
	require.NoError(t, p.Register(c, Read))

	events, err := p.Poll(10 * time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = unix.Write(peer, []byte("GET / HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)

	events, err = p.Poll(time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Same(t, c, events[0].Conn)
	assert.Equal(t, Read, events[0].Interest)
}

func TestRegisterIsIdempotent(t *testing.T) {
	p := newPoller(t)
	c, _ := socketPair(t)

	require.NoError(t, p.Register(c, Read))
	require.NoError(t, p.Register(c, Read))
	assert.Equal(t, 1, p.Len())
}

func TestRegisterSwitchesInterest(t *testing.T) {
	p := newPoller(t)
	c, _ := socketPair(t)

	require.NoError(t, p.Register(c, Read))
	require.NoError(t, p.Register(c, Write))
	assert.Equal(t, 1, p.Len())

	events, err := p.Poll(time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, Write, events[0].Interest)
}

func TestUnregister(t *testing.T) {
	p := newPoller(t)
	c, peer := socketPair(t)
	require.NoError(t, p.Register(c, Read))
	require.NoError(t, p.Unregister(c))
	require.NoError(t, p.Unregister(c))
	assert.Equal(t, 0, p.Len())

	_, err := unix.Write(peer, []byte("x"))
	require.NoError(t, err)
	events, err := p.Poll(20 * time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestClosedConnIsDiscarded(t *testing.T) {
	p := newPoller(t)
	c, peer := socketPair(t)
	require.NoError(t, p.Register(c, Read))

	fd := c.Fd
	c.Fd = -1
	_, err := unix.Write(peer, []byte("x"))
	require.NoError(t, err)

	events, err := p.Poll(time.Second)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, 0, p.Len())
	c.Fd = fd
	assert.ErrorIs(t, p.Register(&Conn{Fd: -1}, Read), ErrClosed)
}

func TestHangupReportsRead(t *testing.T) {
	p := newPoller(t)
	c, peer := socketPair(t)
	require.NoError(t, p.Register(c, Read))
	require.NoError(t, unix.Shutdown(peer, unix.SHUT_WR))

	events, err := p.Poll(time.Second)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, Read, events[0].Interest)
}

func TestWake(t *testing.T) {
	p := newPoller(t)
	go func() {
		time.Sleep(20 * time.Millisecond)
		p.Wake()
	}()

	start := time.Now()
	events, err := p.Poll(-1)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestConnPending(t *testing.T) {
	c := &Conn{Fd: -1}
	assert.Nil(t, c.Pending())
}

func TestDrain(t *testing.T) {
	p := newPoller(t)
	a, _ := socketPair(t)
	b, _ := socketPair(t)
	require.NoError(t, p.Register(a, Read))
	require.NoError(t, p.Register(b, Write))

	drained := p.Drain()
	assert.ElementsMatch(t, []*Conn{a, b}, drained)
	assert.Zero(t, p.Len())
}
