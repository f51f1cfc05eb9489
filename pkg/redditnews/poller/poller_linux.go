//go:build linux

package poller

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dapr/kit/logger"
	"golang.org/x/sys/unix"
)

var log = logger.NewLogger("reddit-news.poller")

// DefaultMaxEvents bounds the number of events returned by one Poll.
const DefaultMaxEvents = 1024

type entry struct {
	conn     *Conn
	interest Interest
}

// Poller is an epoll instance plus the registry of connections in it.
type Poller struct {
	epfd   int
	wakefd int

	mu    sync.Mutex
	conns map[int]entry

	// events is only touched by the goroutine calling Poll.
	events []unix.EpollEvent
}

// New creates a poller returning at most maxEvents events per Poll.
func New(maxEvents int) (*Poller, error) {
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("poller: epoll_create1: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("poller: eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, fmt.Errorf("poller: register eventfd: %w", err)
	}
	return &Poller{
		epfd:   epfd,
		wakefd: wakefd,
		conns:  make(map[int]entry),
		events: make([]unix.EpollEvent, maxEvents),
	}, nil
}

func eventsFor(in Interest) uint32 {
	if in == Write {
		return unix.EPOLLOUT
	}
	return unix.EPOLLIN | unix.EPOLLRDHUP
}

// Register starts waiting for c to become ready in direction in. Registering
// a connection again under the same interest is a no-op; a different
// interest replaces the previous one.
func (p *Poller) Register(c *Conn, in Interest) error {
	if c.Fd < 0 {
		return ErrClosed
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	ev := unix.EpollEvent{Events: eventsFor(in), Fd: int32(c.Fd)}
	if e, ok := p.conns[c.Fd]; ok {
		if e.conn == c && e.interest == in {
			return nil
		}
		if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, c.Fd, &ev); err != nil {
			return fmt.Errorf("poller: modify fd %d: %w", c.Fd, err)
		}
		p.conns[c.Fd] = entry{conn: c, interest: in}
		return nil
	}

	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, c.Fd, &ev)
	if errors.Is(err, unix.EEXIST) {
		err = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, c.Fd, &ev)
	}
	if err != nil {
		return fmt.Errorf("poller: add fd %d: %w", c.Fd, err)
	}
	p.conns[c.Fd] = entry{conn: c, interest: in}
	return nil
}

// Unregister stops waiting on c. Connections that are not registered, or
// whose descriptor is already gone, are ignored.
func (p *Poller) Unregister(c *Conn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unregisterLocked(c)
}

func (p *Poller) unregisterLocked(c *Conn) error {
	if c.Fd < 0 {
		return nil
	}
	e, ok := p.conns[c.Fd]
	if !ok || e.conn != c {
		return nil
	}
	delete(p.conns, c.Fd)
	err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, c.Fd, nil)
	if err != nil && !errors.Is(err, unix.ENOENT) && !errors.Is(err, unix.EBADF) {
		return fmt.Errorf("poller: delete fd %d: %w", c.Fd, err)
	}
	return nil
}

// Poll waits up to timeout for ready connections. A negative timeout waits
// forever. An interrupted wait returns no events and no error.
func (p *Poller) Poll(timeout time.Duration) ([]Event, error) {
	msec := -1
	if timeout >= 0 {
		msec = int(timeout.Milliseconds())
		if msec == 0 && timeout > 0 {
			msec = 1
		}
	}

	n, err := unix.EpollWait(p.epfd, p.events, msec)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, fmt.Errorf("poller: epoll_wait: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ready := make([]Event, 0, n)
	for i := 0; i < n; i++ {
		ev := p.events[i]
		fd := int(ev.Fd)
		if fd == p.wakefd {
			p.drainWake()
			continue
		}
		e, ok := p.conns[fd]
		if !ok {
			// Unregistered while the kernel was reporting it.
			continue
		}
		if e.conn.Fd != fd {
			log.Debugf("Discarding stale registration for fd %d", fd)
			delete(p.conns, fd)
			_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
			continue
		}
		ready = append(ready, Event{Conn: e.conn, Interest: e.interest})
	}
	return ready, nil
}

// Wake interrupts a Poll in progress.
func (p *Poller) Wake() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	_, err := unix.Write(p.wakefd, buf[:])
	if err != nil && !errors.Is(err, unix.EAGAIN) {
		return fmt.Errorf("poller: wake: %w", err)
	}
	return nil
}

func (p *Poller) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(p.wakefd, buf[:]); err != nil {
			return
		}
	}
}

// Len returns the number of registered connections.
func (p *Poller) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Drain unregisters every connection and returns them to the caller,
// which becomes responsible for closing them.
func (p *Poller) Drain() []*Conn {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Conn, 0, len(p.conns))
	for _, e := range p.conns {
		out = append(out, e.conn)
	}
	for _, c := range out {
		_ = p.unregisterLocked(c)
	}
	return out
}

// Close releases the epoll instance. Registered connections are left open.
func (p *Poller) Close() error {
	p.mu.Lock()
	p.conns = make(map[int]entry)
	p.mu.Unlock()
	err := unix.Close(p.wakefd)
	if cerr := unix.Close(p.epfd); err == nil {
		err = cerr
	}
	return err
}
