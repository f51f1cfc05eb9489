package http11

import (
	"bytes"
	"net/url"
	"strings"
)

// Header is one request header line split at the first colon.
type Header struct {
	Name  string
	Value string
}

// Request is a parsed HTTP request. It lives only as long as its handling.
type Request struct {
	Method   string
	MethodID uint8

	// Target is the raw request target, Path its percent-decoded path
	// component and Query whatever followed the first '?'.
	Target string
	Path   string
	Query  string

	Proto   string
	Headers []Header
	Body    []byte
}

// ParseRequest parses a raw request received by ReadRequest.
func ParseRequest(raw []byte) (*Request, error) {
	if len(raw) == 0 {
		return nil, ErrEmptyRequest
	}
	head, body, found := bytes.Cut(raw, crlfcrlf)
	if !found {
		head = bytes.TrimRight(head, "\r\n")
	}

	lines := strings.Split(string(head), "\r\n")
	req := &Request{Body: body}
	if err := req.parseRequestLine(lines[0]); err != nil {
		return nil, err
	}

	req.Headers = make([]Header, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok || name == "" || strings.ContainsAny(name, " \t") {
			return nil, ErrInvalidHeader
		}
		req.Headers = append(req.Headers, Header{Name: name, Value: strings.TrimSpace(value)})
	}
	return req, nil
}

func (req *Request) parseRequestLine(line string) error {
	parts := strings.Split(line, " ")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || !strings.HasPrefix(parts[2], "HTTP/") {
		return ErrInvalidRequestLine
	}
	req.Method = parts[0]
	req.MethodID = ParseMethodID(parts[0])
	req.Target = parts[1]
	req.Proto = parts[2]

	rawPath, query, _ := strings.Cut(req.Target, "?")
	if !strings.HasPrefix(rawPath, "/") {
		return ErrInvalidPath
	}
	path, err := url.PathUnescape(rawPath)
	if err != nil || strings.IndexByte(path, 0) >= 0 {
		return ErrInvalidPath
	}
	req.Path = path
	req.Query = query
	return nil
}

// Header returns the value of the first header named name, compared
// case-insensitively, and whether it was present.
func (req *Request) Header(name string) (string, bool) {
	for _, h := range req.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// HeaderPrefix returns the first header whose name starts with prefix,
// compared case-insensitively.
func (req *Request) HeaderPrefix(prefix string) (Header, bool) {
	for _, h := range req.Headers {
		if len(h.Name) >= len(prefix) && strings.EqualFold(h.Name[:len(prefix)], prefix) {
			return h, true
		}
	}
	return Header{}, false
}

// AcceptEncodings returns the encodings the client listed, in its order,
// lower-cased and without quality values. Nil means no Accept-Encoding.
func (req *Request) AcceptEncodings() []string {
	value, ok := req.Header(HeaderAcceptEncoding)
	if !ok {
		return nil
	}
	encodings := []string{}
	for _, item := range strings.Split(value, ",") {
		name, _, _ := strings.Cut(item, ";")
		if name = strings.ToLower(strings.TrimSpace(name)); name != "" {
			encodings = append(encodings, name)
		}
	}
	return encodings
}

// IsHead reports whether the response body must be stripped.
func (req *Request) IsHead() bool {
	return req.MethodID == MethodHEAD
}
