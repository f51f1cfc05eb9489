package http11

import (
	"io"
	"strconv"
	"strings"
	"time"
)

// Response is a complete response ready to be serialized.
type Response struct {
	Status      int
	ContentType string
	Headers     []Header
	Body        []byte

	// omitBody serializes headers only, as for HEAD.
	omitBody bool
}

// AddHeader appends a header line.
func (r *Response) AddHeader(name, value string) {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
}

// Header returns the first value of the named header.
func (r *Response) Header(name string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// StripBody keeps every header, Content-Length included, but drops the body
// from the serialized form.
func (r *Response) StripBody() {
	r.omitBody = true
}

// WriteTo serializes the response.
func (r *Response) WriteTo(w io.Writer) (int64, error) {
	var total int64
	write := func(b []byte) error {
		n, err := w.Write(b)
		total += int64(n)
		return err
	}

	if err := write(statusLine(r.Status)); err != nil {
		return total, err
	}
	for _, h := range r.Headers {
		if err := write([]byte(h.Name + ": " + h.Value + "\r\n")); err != nil {
			return total, err
		}
	}
	if err := write(crlf); err != nil {
		return total, err
	}
	if !r.omitBody && len(r.Body) > 0 {
		if err := write(r.Body); err != nil {
			return total, err
		}
	}
	return total, nil
}

// Encoder compresses content for one of the client's accepted encodings.
// It returns the content unchanged and an empty name when no encoding applies.
type Encoder interface {
	Encode(content []byte, contentType string, accepted []string) ([]byte, string, error)
}

// BuilderConfig configures the headers every response carries.
type BuilderConfig struct {
	// Caching is the advertised max-age. Zero disables Cache-Control and ETag.
	Caching time.Duration

	// AcceptRanges advertises byte-range support.
	AcceptRanges bool

	// AdditionalHeaders are "Name: value" lines added to every response.
	AdditionalHeaders []string

	// Encoder negotiates Content-Encoding. Nil never compresses.
	Encoder Encoder

	// Now returns the Date of responses. Defaults to time.Now.
	Now func() time.Time
}

// Builder assembles responses. The fixed part of the header block is
// prepared once in NewBuilder.
type Builder struct {
	caching bool
	encoder Encoder
	now     func() time.Time
	fixed   []Header
	cache   []Header
}

// NewBuilder creates a builder from cfg.
func NewBuilder(cfg BuilderConfig) *Builder {
	b := &Builder{
		caching: cfg.Caching > 0,
		encoder: cfg.Encoder,
		now:     cfg.Now,
	}
	if b.now == nil {
		b.now = time.Now
	}

	ranges := "none"
	if cfg.AcceptRanges {
		ranges = "bytes"
	}
	b.fixed = []Header{
		{Name: "Connection", Value: "close"},
		{Name: "Vary", Value: HeaderAcceptEncoding},
		{Name: "Accept-Ranges", Value: ranges},
	}
	for _, line := range cfg.AdditionalHeaders {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		b.fixed = append(b.fixed, Header{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	if b.caching {
		b.cache = []Header{{
			Name:  HeaderCacheControl,
			Value: "public, max-age=" + strconv.Itoa(int(cfg.Caching/time.Second)),
		}}
	}
	return b
}

// Caching reports whether ETags and conditional requests are in effect.
func (b *Builder) Caching() bool {
	return b.caching
}

// Basic returns a response carrying the basic headers: Date, Connection,
// Vary, Accept-Ranges, the configured extra headers, Cache-Control when
// caching and Content-Type.
func (b *Builder) Basic(status int, contentType string) *Response {
	headers := make([]Header, 0, len(b.fixed)+len(b.cache)+6)
	headers = append(headers, Header{Name: "Date", Value: FormatTime(b.now())})
	headers = append(headers, b.fixed...)
	headers = append(headers, b.cache...)
	if contentType != "" {
		headers = append(headers, Header{Name: HeaderContentType, Value: contentType})
	}
	return &Response{Status: status, ContentType: contentType, Headers: headers}
}

// Attach adds content to resp: the ETag when caching (etag overrides the
// digest of content when not empty), the negotiated Content-Encoding,
// Content-Length and the body. A nil accepted list skips negotiation.
func (b *Builder) Attach(resp *Response, content []byte, accepted []string, etag string) error {
	if b.caching {
		if etag == "" {
			etag = ETag(content)
		}
		resp.AddHeader(HeaderETag, `"`+etag+`"`)
	}

	body := content
	if accepted != nil && b.encoder != nil {
		encoded, name, err := b.encoder.Encode(content, resp.ContentType, accepted)
		if err != nil {
			return err
		}
		if name != "" {
			body = encoded
			resp.AddHeader(HeaderContentEncoding, name)
		}
	}

	resp.AddHeader(HeaderContentLength, strconv.Itoa(len(body)))
	resp.Body = body
	return nil
}
