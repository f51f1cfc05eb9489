//go:build linux

package socket

import (
	"errors"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// ErrTimeout is returned when a descriptor did not become ready in time.
var ErrTimeout = errors.New("socket: i/o timeout")

// FdReader reads a non-blocking socket, waiting up to Timeout for
// readability whenever the kernel has no data yet.
type FdReader struct {
	Fd      int
	Timeout time.Duration
}

func (r *FdReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for {
		n, err := unix.Read(r.Fd, p)
		switch {
		case err == nil && n == 0:
			return 0, io.EOF
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			if err := wait(r.Fd, unix.POLLIN, r.Timeout); err != nil {
				return 0, err
			}
		default:
			return 0, err
		}
	}
}

// Write writes as much of p as the socket accepts without blocking. A
// full send buffer is not an error: the caller waits for write readiness.
// A peer that went away yields EPIPE instead of SIGPIPE.
func Write(fd int, p []byte) (int, error) {
	written := 0
	for written < len(p) {
		n, err := unix.SendmsgN(fd, p[written:], nil, nil, unix.MSG_NOSIGNAL)
		switch {
		case err == nil:
			written += n
		case errors.Is(err, unix.EINTR):
		case errors.Is(err, unix.EAGAIN):
			return written, nil
		default:
			return written, err
		}
	}
	return written, nil
}

func wait(fd int, events int16, timeout time.Duration) error {
	msec := -1
	if timeout > 0 {
		msec = int(timeout.Milliseconds())
	}
	deadline := time.Now().Add(timeout)
	for {
		fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
		n, err := unix.Poll(fds, msec)
		if errors.Is(err, unix.EINTR) {
			if timeout > 0 {
				if msec = int(time.Until(deadline).Milliseconds()); msec <= 0 {
					return ErrTimeout
				}
			}
			continue
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrTimeout
		}
		return nil
	}
}
