package poller

import "errors"

// ErrClosed is returned when registering a connection whose descriptor was closed.
var ErrClosed = errors.New("poller: connection closed")
