// Package server is the reactor serving the reddit-news site: it accepts
// connections, reads requests, routes them to the static resolver or the
// processing API and writes the responses back.
package server

import (
	"time"

	"github.com/dapr/kit/logger"

	"github.com/za419/reddit-news/pkg/redditnews/metrics"
	"github.com/za419/reddit-news/pkg/redditnews/socket"
)

var log = logger.NewLogger("reddit-news.server")

// Option customizes a Server.
type Option func(*options)

type options struct {
	metrics   *metrics.Metrics
	tuning    *socket.Config
	now       func() time.Time
	maxEvents int
}

// WithMetrics records server activity on m instead of a private registry.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTuning applies cfg to the listener and every accepted socket.
func WithTuning(cfg *socket.Config) Option {
	return func(o *options) {
		o.tuning = cfg
	}
}

// WithClock sets the source of the Date header.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithMaxEvents bounds the number of ready connections handled per cycle.
func WithMaxEvents(n int) Option {
	return func(o *options) {
		o.maxEvents = n
	}
}
