//go:build linux

package server

import (
	"context"
	"errors"
	"fmt"
	"html"
	"runtime/debug"
	"strings"
	"time"

	"github.com/za419/reddit-news/pkg/redditnews/api"
	"github.com/za419/reddit-news/pkg/redditnews/http11"
	"github.com/za419/reddit-news/pkg/redditnews/poller"
	"github.com/za419/reddit-news/pkg/redditnews/static"
)

const (
	htmlType = "text/html"

	badRequestText     = "Your browser sent a request the server could not understand."
	notAllowedText     = "Your browser attempted to perform an action the server doesn't support at this location."
	notImplementedText = "Your browser sent a request to perform an action the server doesn't support."
	internalErrorText  = "The server encountered an error while attempting to process your request."

	forbiddenWarning = `299 - "Access to files above the root directory of the served path is forbidden. This incident has been logged."`
)

// respond parses raw and produces its response. A panic while handling
// becomes a 500.
func (s *Server) respond(ctx context.Context, c *poller.Conn, raw []byte) (resp *http11.Response, method string) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Panic while handling request from %s: %v\n%s", c.ClientID, r, debug.Stack())
			resp = s.internalError(fmt.Errorf("%v", r), nil)
		}
	}()

	req, err := http11.ParseRequest(raw)
	if err != nil {
		log.Infof("Malformed request from %s: %v", c.ClientID, err)
		return s.errorResponse(http11.StatusBadRequest, badRequestText, nil), ""
	}
	method = http11.MethodString(req.MethodID)
	c.ClientID = clientID(s.cfg.ClientIDHeader, c.Peer, req)
	log.Infof("%s %s from %s", req.Method, req.Target, c.ClientID)

	resp = s.route(ctx, c, req)
	if req.IsHead() {
		resp.StripBody()
	}
	return resp, method
}

func (s *Server) route(ctx context.Context, c *poller.Conn, req *http11.Request) *http11.Response {
	accepted := req.AcceptEncodings()
	switch req.MethodID {
	case http11.MethodGET, http11.MethodHEAD:
		return s.serveStatic(c, req, accepted)
	case http11.MethodPOST:
		if s.postEnabled() {
			if req.Path == api.Path {
				return s.process(ctx, c, req, accepted)
			}
			log.Infof("Refused POST to %s from %s", req.Path, c.ClientID)
			return s.errorResponse(http11.StatusMethodNotAllowed, notAllowedText, accepted,
				http11.Header{Name: http11.HeaderAllow, Value: "GET, HEAD"})
		}
	}
	log.Infof("Unsupported method %s from %s", req.Method, c.ClientID)
	return s.errorResponse(http11.StatusNotImplemented, notImplementedText, accepted,
		http11.Header{Name: http11.HeaderAllow, Value: "GET, HEAD"})
}

func (s *Server) postEnabled() bool {
	return s.cfg.EnablePost && s.api != nil
}

func (s *Server) process(ctx context.Context, c *poller.Conn, req *http11.Request, accepted []string) *http11.Response {
	body, err := s.api.Process(ctx, req.Body)
	switch {
	case errors.Is(err, api.ErrBadRequest):
		log.Infof("Bad process request from %s: %v", c.ClientID, err)
		return s.errorResponse(http11.StatusBadRequest, badRequestText+"<br>"+html.EscapeString(err.Error()), accepted)
	case err != nil:
		log.Errorf("Processing request from %s failed: %v", c.ClientID, err)
		return s.internalError(err, accepted)
	}
	return s.build(http11.StatusOK, api.ContentType, body, accepted)
}

func (s *Server) serveStatic(c *poller.Conn, req *http11.Request, accepted []string) *http11.Response {
	res, err := s.resolver.Resolve(req.Path)
	if errors.Is(err, static.ErrForbidden) {
		path := req.Path
		var re *static.ResolveError
		if errors.As(err, &re) {
			path = re.Path
		}
		log.Errorf("Client at %s attempted to access forbidden file %s, but was denied access.", c.ClientID, path)
		return s.errorResponse(http11.StatusForbidden,
			`You are not permitted to access "`+html.EscapeString(req.Path)+`" on this server.`, accepted,
			http11.Header{Name: http11.HeaderWarning, Value: forbiddenWarning})
	}
	if err != nil {
		log.Errorf("Could not resolve %s: %v", req.Path, err)
		return s.internalError(err, accepted)
	}
	if res.Redirect != "" {
		log.Infof("Issued redirect from %s to %s", req.Path, res.Redirect)
		return s.build(http11.StatusMovedPermanently, htmlType, nil, nil,
			http11.Header{Name: http11.HeaderLocation, Value: res.Redirect})
	}

	f, err := s.resolver.Open(res.Path)
	if errors.Is(err, static.ErrNotFound) {
		return s.notFound(req, res.Path, accepted)
	}
	if err != nil {
		log.Errorf("Could not open file %s: %v", res.Path, err)
		return s.internalError(err, accepted)
	}

	modified := http11.FormatTime(f.ModTime)
	var etag string
	if s.builder.Caching() {
		etag = s.etags.Get(res.Path, f)
		if notModified(req, etag, f.ModTime) {
			log.Debugf("%s not modified for %s", res.Path, c.ClientID)
			resp := s.builder.Basic(http11.StatusNotModified, res.MIME)
			resp.AddHeader(http11.HeaderETag, `"`+etag+`"`)
			resp.AddHeader(http11.HeaderLastModified, modified)
			return resp
		}
	}

	if s.cfg.EnableRanges {
		if value, ok := req.Header(http11.HeaderRange); ok && s.rangeApplies(req, res.Path, f) {
			return s.partial(value, res, f, etag, modified, accepted)
		}
	}

	resp := s.builder.Basic(http11.StatusOK, res.MIME)
	resp.AddHeader(http11.HeaderLastModified, modified)
	s.attach(resp, f.Content, accepted, etag)
	return resp
}

// notModified evaluates If-None-Match, or If-Modified-Since when the
// former is absent.
func notModified(req *http11.Request, etag string, mod time.Time) bool {
	if value, ok := req.Header(http11.HeaderIfNoneMatch); ok {
		return unquote(value) == etag
	}
	if value, ok := req.Header(http11.HeaderIfModifiedSince); ok {
		since, err := http11.ParseTime(value)
		return err == nil && !since.Before(static.ModSeconds(mod))
	}
	return false
}

// rangeApplies evaluates If-Range. A value containing a space is a date,
// anything else an entity tag.
func (s *Server) rangeApplies(req *http11.Request, path string, f *static.File) bool {
	value, ok := req.Header(http11.HeaderIfRange)
	if !ok {
		return true
	}
	if strings.Contains(value, " ") {
		since, err := http11.ParseTime(value)
		return err == nil && !since.Before(static.ModSeconds(f.ModTime))
	}
	return unquote(value) == s.etags.Get(path, f)
}

func (s *Server) partial(value string, res *static.Resolution, f *static.File, etag, modified string, accepted []string) *http11.Response {
	length := len(f.Content)
	r, err := http11.ParseRange(value, length)
	if err != nil {
		log.Infof("Unsatisfiable range %q for %s", value, res.Path)
		return s.errorResponse(http11.StatusRangeNotSatisfiable,
			fmt.Sprintf("The server was unable to satisfy your request for bytes %d to %d of a %d byte file.", r.Start, r.End, length),
			accepted, http11.Header{Name: http11.HeaderContentRange, Value: http11.UnsatisfiedRange(length)})
	}
	resp := s.builder.Basic(http11.StatusPartialContent, res.MIME)
	resp.AddHeader(http11.HeaderContentRange, r.ContentRange(length))
	resp.AddHeader(http11.HeaderLastModified, modified)
	s.attach(resp, f.Content[r.Start:r.Start+r.Len()], accepted, etag)
	return resp
}

func (s *Server) notFound(req *http11.Request, path string, accepted []string) *http11.Response {
	switch {
	case s.cfg.Enable418 && strings.HasSuffix(req.Path, coffeeSuffix):
		log.Warnf("Became a teapot in response to request for unfound file %s", path)
		return s.build(http11.StatusTeapot, htmlType, teapotPage(s.teapot), accepted)
	case s.cfg.EnableCows && s.cows.MatchString(req.Path):
		status := http11.StatusNotFound
		if s.cfg.CowsOK {
			status = http11.StatusOK
		}
		log.Warnf("Became a cow in response to request for unfound file %s", path)
		return s.build(status, htmlType, cowPage(status), accepted)
	}
	log.Warnf("Could not find file %s", path)
	return s.errorResponse(http11.StatusNotFound,
		`The requested file "`+html.EscapeString(req.Path)+`" was not found on this server.`, accepted)
}

func (s *Server) errorResponse(status int, description string, accepted []string, headers ...http11.Header) *http11.Response {
	return s.build(status, htmlType, http11.ErrorPage(http11.Status(status), description), accepted, headers...)
}

// internalError reports err to the client inside an HTML comment.
func (s *Server) internalError(err error, accepted []string) *http11.Response {
	return s.errorResponse(http11.StatusInternalServerError,
		internalErrorText+"\n<!-- "+html.EscapeString(err.Error())+"\n-->", accepted)
}

// build assembles a complete response, falling back to an unencoded body
// when compression fails.
func (s *Server) build(status int, contentType string, content []byte, accepted []string, headers ...http11.Header) *http11.Response {
	resp := s.builder.Basic(status, contentType)
	resp.Headers = append(resp.Headers, headers...)
	s.attach(resp, content, accepted, "")
	return resp
}

func (s *Server) attach(resp *http11.Response, content []byte, accepted []string, etag string) {
	n := len(resp.Headers)
	if err := s.builder.Attach(resp, content, accepted, etag); err != nil {
		log.Warnf("Sending %d unencoded: %v", resp.Status, err)
		resp.Headers = resp.Headers[:n]
		_ = s.builder.Attach(resp, content, nil, etag)
	}
}

// unquote returns the first quoted string in v, or v itself when unquoted.
func unquote(v string) string {
	i := strings.IndexByte(v, '"')
	if i < 0 {
		return strings.TrimSpace(v)
	}
	rest := v[i+1:]
	if j := strings.IndexByte(rest, '"'); j >= 0 {
		return rest[:j]
	}
	return rest
}
