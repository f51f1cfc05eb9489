//go:build linux

package poller

import "golang.org/x/sys/unix"

// Close closes the socket and releases the output buffer. It must only be
// called by the worker owning c, after c was unregistered.
func (c *Conn) Close() error {
	c.Release()
	if c.Fd < 0 {
		return nil
	}
	fd := c.Fd
	c.Fd = -1
	return unix.Close(fd)
}
