package http11

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2024, 3, 9, 12, 30, 0, 0, time.UTC) }

type upperEncoder struct{ err error }

func (e upperEncoder) Encode(content []byte, contentType string, accepted []string) ([]byte, string, error) {
	if e.err != nil {
		return nil, "", e.err
	}
	for _, a := range accepted {
		if a == "upper" {
			return bytes.ToUpper(content), "upper", nil
		}
	}
	return content, "", nil
}

func headerNames(r *Response) []string {
	names := make([]string, len(r.Headers))
	for i, h := range r.Headers {
		names[i] = h.Name
	}
	return names
}

func TestBuilderBasic(t *testing.T) {
	b := NewBuilder(BuilderConfig{
		AcceptRanges:      true,
		AdditionalHeaders: []string{"Server: reddit-news", "X-Extra:  1 "},
		Now:               fixedNow,
	})
	resp := b.Basic(StatusOK, "text/html")

	assert.Equal(t, []string{"Date", "Connection", "Vary", "Accept-Ranges", "Server", "X-Extra", "Content-Type"}, headerNames(resp))
	assert.Equal(t, "Sat, 09 Mar 2024 12:30:00 GMT", resp.Header("Date"))
	assert.Equal(t, "close", resp.Header("Connection"))
	assert.Equal(t, "Accept-Encoding", resp.Header("Vary"))
	assert.Equal(t, "bytes", resp.Header("Accept-Ranges"))
	assert.Equal(t, "1", resp.Header("X-Extra"))
	assert.False(t, b.Caching())
}

func TestBuilderCaching(t *testing.T) {
	b := NewBuilder(BuilderConfig{Caching: 300 * time.Second, Now: fixedNow})
	resp := b.Basic(StatusOK, "text/plain")
	assert.Equal(t, "none", resp.Header("Accept-Ranges"))
	assert.Equal(t, "public, max-age=300", resp.Header("Cache-Control"))

	require.NoError(t, b.Attach(resp, []byte("hello"), nil, ""))
	assert.Equal(t, `"`+ETag([]byte("hello"))+`"`, resp.Header("ETag"))
	assert.Equal(t, "5", resp.Header("Content-Length"))

	override := b.Basic(StatusPartialContent, "text/plain")
	require.NoError(t, b.Attach(override, []byte("ell"), nil, "full-etag"))
	assert.Equal(t, `"full-etag"`, override.Header("ETag"))
}

func TestBuilderEncoding(t *testing.T) {
	b := NewBuilder(BuilderConfig{Encoder: upperEncoder{}, Now: fixedNow})

	resp := b.Basic(StatusOK, "text/plain")
	require.NoError(t, b.Attach(resp, []byte("hello"), []string{"gzip", "upper"}, ""))
	assert.Equal(t, "upper", resp.Header("Content-Encoding"))
	assert.Equal(t, "HELLO", string(resp.Body))
	assert.Empty(t, resp.Header("ETag"))

	plain := b.Basic(StatusOK, "text/plain")
	require.NoError(t, b.Attach(plain, []byte("hello"), nil, ""))
	assert.Empty(t, plain.Header("Content-Encoding"))
	assert.Equal(t, "hello", string(plain.Body))

	failing := NewBuilder(BuilderConfig{Encoder: upperEncoder{err: errors.New("boom")}})
	assert.Error(t, failing.Attach(failing.Basic(StatusOK, "text/plain"), []byte("x"), []string{"upper"}, ""))
}

func TestResponseWriteTo(t *testing.T) {
	b := NewBuilder(BuilderConfig{Now: fixedNow})
	resp := b.Basic(StatusNotImplemented, "text/html")
	resp.AddHeader(HeaderAllow, "GET, HEAD")
	require.NoError(t, b.Attach(resp, []byte("<p>no</p>"), nil, ""))

	var buf bytes.Buffer
	n, err := resp.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "HTTP/1.1 501 Not Implemented\r\n"))
	assert.Contains(t, out, "\r\nAllow: GET, HEAD\r\n")
	assert.Contains(t, out, "\r\nContent-Length: 9\r\n")
	assert.True(t, strings.HasSuffix(out, "\r\n\r\n<p>no</p>"))

	resp.StripBody()
	buf.Reset()
	_, err = resp.WriteTo(&buf)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(buf.String(), "Content-Length: 9\r\n\r\n"))
}

func TestTeapotStatusLine(t *testing.T) {
	var buf bytes.Buffer
	(&Response{Status: StatusTeapot}).WriteTo(&buf)
	assert.Equal(t, "HTTP/1.1 418 I'm a teapot\r\n\r\n", buf.String())
	assert.Equal(t, "416 Range Not Satisfiable", Status(StatusRangeNotSatisfiable))
}

func TestETag(t *testing.T) {
	a := ETag([]byte("content"))
	assert.Equal(t, a, ETag([]byte("content")))
	assert.NotEqual(t, a, ETag([]byte("content!")))

	raw, err := base64.URLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)
	assert.NotContains(t, a, " ")
}

func TestErrorPage(t *testing.T) {
	page := string(ErrorPage("404 Not Found", "The requested file was not found."))
	assert.Contains(t, page, "<title>404 Not Found</title>")
	assert.Contains(t, page, "<h1 style='text-align: center; width:100%'>404 Not Found</h1>")
	assert.Contains(t, page, "<p>The requested file was not found.</p>")
	assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>\n"))
}

func TestTime(t *testing.T) {
	ts := FormatTime(fixedNow())
	parsed, err := ParseTime(ts)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(fixedNow()))

	_, err = ParseTime("yesterday")
	assert.Error(t, err)
}
