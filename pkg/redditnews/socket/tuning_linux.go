//go:build linux

package socket

import "golang.org/x/sys/unix"

// Config represents socket tuning configuration.
// Zero values mean "use system defaults".
type Config struct {
	// TCP_NODELAY - responses are written in one burst, Nagle only delays them.
	NoDelay bool

	// SO_RCVBUF / SO_SNDBUF in bytes. 0 keeps the kernel default.
	RecvBuffer int
	SendBuffer int

	// TCP_QUICKACK on accepted sockets.
	QuickAck bool

	// TCP_DEFER_ACCEPT on the listener, in seconds. 0 disables it.
	// A deferred listener never reports clients that connect without
	// sending, so they cannot receive the empty-request response.
	DeferAccept int

	// UserTimeout is TCP_USER_TIMEOUT in milliseconds. 0 disables it.
	UserTimeout int
}

// DefaultConfig returns the tuning applied to accepted client sockets.
func DefaultConfig() *Config {
	return &Config{
		NoDelay:     true,
		QuickAck:    true,
		UserTimeout: 10000,
	}
}

// Apply applies socket tuning options to an accepted socket.
// Only a TCP_NODELAY failure is reported; the other options are best effort.
func Apply(fd int, cfg *Config) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.NoDelay {
		if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
			return err
		}
	}
	if cfg.RecvBuffer > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, cfg.RecvBuffer)
	}
	if cfg.SendBuffer > 0 {
		_ = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_SNDBUF, cfg.SendBuffer)
	}
	if cfg.QuickAck {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_QUICKACK, 1)
	}
	if cfg.UserTimeout > 0 {
		_ = unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_USER_TIMEOUT, cfg.UserTimeout)
	}
	return nil
}

// ApplyListener applies listener-only options.
func ApplyListener(fd int, cfg *Config) error {
	if cfg == nil || cfg.DeferAccept <= 0 {
		return nil
	}
	return unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT, cfg.DeferAccept)
}
