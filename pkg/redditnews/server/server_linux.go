//go:build linux

package server

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/za419/reddit-news/pkg/redditnews/api"
	"github.com/za419/reddit-news/pkg/redditnews/config"
	"github.com/za419/reddit-news/pkg/redditnews/encoding"
	"github.com/za419/reddit-news/pkg/redditnews/http11"
	"github.com/za419/reddit-news/pkg/redditnews/metrics"
	"github.com/za419/reddit-news/pkg/redditnews/poller"
	"github.com/za419/reddit-news/pkg/redditnews/socket"
	"github.com/za419/reddit-news/pkg/redditnews/static"
)

// Server is a single-listener reactor. Connections are handled on the
// reactor goroutine when MaxThreads is 0, and on pools of MaxThreads
// readers and MaxThreads writers otherwise.
type Server struct {
	cfg  *config.Config
	opts options

	poller   *poller.Poller
	listener *poller.Conn
	port     int

	reader   *http11.Reader
	builder  *http11.Builder
	resolver *static.Resolver
	etags    *static.ETagCache
	api      *api.Handler
	metrics  *metrics.Metrics

	blacklist map[string]struct{}
	cows      *regexp.Regexp
	teapot    string

	readers *WorkerPool[*poller.Conn]
	writers *WorkerPool[*poller.Conn]

	fatal chan error
	once  sync.Once
}

// New prepares a server for cfg. fetcher backs POST /process; a nil
// fetcher leaves the endpoint disabled.
func New(cfg *config.Config, fetcher api.Fetcher, opts ...Option) (*Server, error) {
	o := options{tuning: socket.DefaultConfig(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New()
	}

	resolver, err := static.NewResolver(cfg.Root, nil)
	if err != nil {
		return nil, fmt.Errorf("server: root %q: %w", cfg.Root, err)
	}
	negotiator, err := encoding.NewNegotiator(cfg.CompressTypePattern, cfg.MinimumCompressSize, cfg.ExtendedEncodings)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	etags, err := static.NewETagCache(cfg.CacheEntries, http11.ETag)
	if err != nil {
		return nil, fmt.Errorf("server: etag cache: %w", err)
	}
	cows, err := regexp.Compile(`(?i)^(?:` + cfg.MooPattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("server: moo_regex: %w", err)
	}
	p, err := poller.New(o.maxEvents)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		cfg:      cfg,
		opts:     o,
		poller:   p,
		reader:   http11.NewReader(cfg.BlockSize),
		resolver: resolver,
		etags:    etags,
		metrics:  o.metrics,
		cows:     cows,
		fatal:    make(chan error, 1),
		builder: http11.NewBuilder(http11.BuilderConfig{
			Caching:           cfg.Caching,
			AcceptRanges:      cfg.EnableRanges,
			AdditionalHeaders: cfg.AdditionalHeaders,
			Encoder:           negotiator,
			Now:               o.now,
		}),
		blacklist: make(map[string]struct{}, len(cfg.Blacklist)),
	}
	for _, ip := range cfg.Blacklist {
		s.blacklist[ip] = struct{}{}
	}
	if fetcher != nil {
		s.api = api.NewHandler(fetcher)
	}
	if cfg.Enable418 {
		s.teapot = loadTeapot(cfg.TeapotImage)
	}
	s.metrics.RegisterPool("request_chunks", func() metrics.PoolStats {
		st := s.reader.Pool().Stats()
		return metrics.PoolStats{Gets: st.Gets, Misses: st.Misses}
	})
	return s, nil
}

// Listen binds the listening socket. Serve calls it when needed.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}
	fd, err := socket.Listen(s.cfg.Port, s.cfg.Backlog)
	if err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if s.opts.tuning != nil {
		if err := socket.ApplyListener(fd, s.opts.tuning); err != nil {
			log.Warnf("Could not tune listening socket: %v", err)
		}
	}
	lc := &poller.Conn{Fd: fd, IsAccept: true}
	port, err := socket.LocalPort(fd)
	if err != nil {
		lc.Close()
		return fmt.Errorf("server: %w", err)
	}
	s.listener = lc
	s.port = port
	log.Infof("Listening on port %d, serving %s", port, s.resolver.Root())
	return nil
}

// Port returns the bound port, useful when listening on port 0.
func (s *Server) Port() int {
	return s.port
}

// Metrics returns the collectors the server records on.
func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Serve runs the reactor until ctx is cancelled or accepting or polling
// fails. Open connections are closed before it returns.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	if n := s.cfg.MaxThreads; n > 0 {
		var err error
		if s.readers, err = NewWorkerPool("reader", n, func(c *poller.Conn) { s.handleRead(ctx, c) }); err != nil {
			return err
		}
		if s.writers, err = NewWorkerPool("writer", n, s.handleWrite); err != nil {
			s.readers.Close()
			s.readers = nil
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() {
		if err := s.poller.Wake(); err != nil {
			log.Warnf("Could not wake reactor: %v", err)
		}
	})
	defer stop()
	log.Infof("Reactor started with %d worker(s) per direction, block_on_read=%t", s.cfg.MaxThreads, s.cfg.BlockOnRead)

	var err error
	for ctx.Err() == nil {
		if err = s.poller.Register(s.listener, poller.Read); err != nil {
			break
		}
		var events []poller.Event
		if events, err = s.poller.Poll(s.cfg.SelectTimeout); err != nil {
			break
		}
		s.metrics.PollCycles.Inc()
		s.dispatch(ctx, events)

		select {
		case err = <-s.fatal:
		default:
		}
		if err != nil {
			break
		}
	}

	s.shutdown()
	if err != nil {
		log.Errorf("Reactor stopped: %v", err)
		return fmt.Errorf("server: %w", err)
	}
	log.Info("Reactor stopped")
	return nil
}

// Close releases the listener and the poller of a server that is not serving.
func (s *Server) Close() error {
	s.shutdown()
	return nil
}

func (s *Server) shutdown() {
	s.once.Do(func() {
		if s.readers != nil {
			s.readers.Close()
			s.writers.Close()
		}
		for _, c := range s.poller.Drain() {
			if c != s.listener {
				c.Close()
			}
		}
		if s.listener != nil {
			s.listener.Close()
		}
		if err := s.poller.Close(); err != nil {
			log.Warnf("Closing poller: %v", err)
		}
	})
}

func (s *Server) fail(err error) {
	select {
	case s.fatal <- err:
	default:
	}
	_ = s.poller.Wake()
}

// dispatch hands one cycle's ready connections to their handlers. Every
// connection is unregistered first so it is owned by exactly one handler.
func (s *Server) dispatch(ctx context.Context, events []poller.Event) {
	if len(events) == 0 {
		return
	}
	reads := make([]*poller.Conn, 0, len(events))
	var writes []*poller.Conn
	for _, ev := range events {
		if err := s.poller.Unregister(ev.Conn); err != nil {
			log.Warnf("Unregistering socket %d: %v", ev.Conn.Fd, err)
		}
		if ev.Interest == poller.Write {
			writes = append(writes, ev.Conn)
		} else {
			reads = append(reads, ev.Conn)
		}
	}

	if s.readers == nil {
		for _, c := range reads {
			s.handleRead(ctx, c)
		}
		for _, c := range writes {
			s.handleWrite(c)
		}
		return
	}

	var done *sync.WaitGroup
	if s.cfg.BlockOnRead && len(reads) > 0 {
		done = new(sync.WaitGroup)
	}
	for _, group := range Partition(reads, s.cfg.MaxThreads) {
		if err := s.readers.Submit(group, done); err != nil {
			log.Warnf("Handling %d read(s) inline: %v", len(group), err)
			for _, c := range group {
				s.handleRead(ctx, c)
			}
		}
	}
	for _, group := range Partition(writes, s.cfg.MaxThreads) {
		if err := s.writers.Submit(group, nil); err != nil {
			log.Warnf("Handling %d write(s) inline: %v", len(group), err)
			for _, c := range group {
				s.handleWrite(c)
			}
		}
	}
	if done != nil {
		done.Wait()
	}
}

// accept drains the listener's queue.
func (s *Server) accept() {
	for {
		fd, peer, err := socket.Accept(s.listener.Fd)
		if errors.Is(err, socket.ErrWouldBlock) {
			return
		}
		if err != nil {
			s.fail(err)
			return
		}

		c := poller.NewConn(fd, peer)
		if _, banned := s.blacklist[peer]; banned {
			s.refuse(c)
			continue
		}
		if s.opts.tuning != nil {
			if err := socket.Apply(fd, s.opts.tuning); err != nil {
				log.Debugf("Could not tune socket %d: %v", fd, err)
			}
		}
		if err := s.poller.Register(c, poller.Read); err != nil {
			log.Errorf("Could not register socket %d from %s: %v", fd, peer, err)
			c.Close()
			continue
		}
		s.metrics.ConnectionsAccepted.Inc()
		log.Debugf("Accepted connection from %s on socket %d", peer, fd)
	}
}

func (s *Server) refuse(c *poller.Conn) {
	log.Infof("Refused connection from blacklisted address %s", c.Peer)
	s.metrics.ConnectionsRejected.Inc()
	if s.cfg.BlacklistResponse != nil {
		if _, err := socket.Write(c.Fd, s.cfg.BlacklistResponse); err != nil {
			log.Debugf("Writing blacklist response to %s: %v", c.Peer, err)
		}
	}
	c.Close()
}

func (s *Server) handleRead(ctx context.Context, c *poller.Conn) {
	if c.IsAccept {
		s.accept()
		return
	}

	started := time.Now()
	raw, err := s.reader.ReadRequest(&socket.FdReader{Fd: c.Fd, Timeout: s.cfg.ReadTimeout})
	var resp *http11.Response
	method := ""
	switch {
	case errors.Is(err, http11.ErrEmptyRequest):
		log.Infof("Empty request from %s on socket %d", c.ClientID, c.Fd)
		resp = s.errorResponse(http11.StatusBadRequest, "Your browser sent an empty request.", nil)
	case errors.Is(err, http11.ErrRequestTooLarge), errors.Is(err, http11.ErrInvalidContentLength):
		log.Infof("Rejected request from %s: %v", c.ClientID, err)
		resp = s.errorResponse(http11.StatusBadRequest, badRequestText, nil)
	case err != nil:
		log.Warnf("Read from %s on socket %d failed: %v", c.ClientID, c.Fd, err)
		c.Close()
		return
	default:
		resp, method = s.respond(ctx, c, raw)
	}
	s.queue(c, resp, method, started)
}

// queue serializes resp into c's output buffer and waits for writability.
func (s *Server) queue(c *poller.Conn, resp *http11.Response, method string, started time.Time) {
	c.Release()
	buf := bytebufferpool.Get()
	_, _ = resp.WriteTo(buf)
	c.Out = buf
	s.metrics.ObserveRequest(method, resp.Status, started)
	if err := s.poller.Register(c, poller.Write); err != nil {
		log.Warnf("Could not queue response to %s: %v", c.ClientID, err)
		c.Close()
	}
}

func (s *Server) handleWrite(c *poller.Conn) {
	n, err := socket.Write(c.Fd, c.Pending())
	c.Sent += n
	s.metrics.BytesWritten.Add(float64(n))
	if err != nil {
		log.Infof("Write to %s on socket %d failed: %v", c.ClientID, c.Fd, err)
		c.Close()
		return
	}
	if len(c.Pending()) > 0 {
		if err := s.poller.Register(c, poller.Write); err != nil {
			log.Warnf("Could not requeue response to %s: %v", c.ClientID, err)
			c.Close()
		}
		return
	}
	log.Debugf("Sent %d bytes to %s, closing socket %d", c.Sent, c.ClientID, c.Fd)
	c.Close()
}
