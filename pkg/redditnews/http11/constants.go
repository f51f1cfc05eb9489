package http11

import "strconv"

// Status codes produced by the server
const (
	StatusOK                  = 200
	StatusPartialContent      = 206
	StatusMovedPermanently    = 301
	StatusNotModified         = 304
	StatusBadRequest          = 400
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusMethodNotAllowed    = 405
	StatusRangeNotSatisfiable = 416
	StatusTeapot              = 418
	StatusInternalServerError = 500
	StatusNotImplemented      = 501
)

var statusText = map[int]string{
	StatusOK:                  "OK",
	StatusPartialContent:      "Partial Content",
	StatusMovedPermanently:    "Moved Permanently",
	StatusNotModified:         "Not Modified",
	StatusBadRequest:          "Bad Request",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusMethodNotAllowed:    "Method Not Allowed",
	StatusRangeNotSatisfiable: "Range Not Satisfiable",
	StatusTeapot:              "I'm a teapot",
	StatusInternalServerError: "Internal Server Error",
	StatusNotImplemented:      "Not Implemented",
}

// statusLines holds the precompiled "HTTP/1.1 <code> <text>\r\n" lines.
var statusLines = func() map[int][]byte {
	m := make(map[int][]byte, len(statusText))
	for code, text := range statusText {
		m[code] = []byte("HTTP/1.1 " + strconv.Itoa(code) + " " + text + "\r\n")
	}
	return m
}()

// StatusText returns the reason phrase of a status code.
func StatusText(code int) string {
	return statusText[code]
}

// Status returns "<code> <reason>", as used in error page titles.
func Status(code int) string {
	return strconv.Itoa(code) + " " + statusText[code]
}

func statusLine(code int) []byte {
	if line, ok := statusLines[code]; ok {
		return line
	}
	return []byte("HTTP/1.1 " + strconv.Itoa(code) + " \r\n")
}

var (
	crlf     = []byte("\r\n")
	crlfcrlf = []byte("\r\n\r\n")
)

// Limits
const (
	// MaxBodySize bounds the body a request may declare.
	MaxBodySize = 1 << 20
)

// Header names
const (
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderAllow           = "Allow"
	HeaderCacheControl    = "Cache-Control"
	HeaderContentEncoding = "Content-Encoding"
	HeaderContentLength   = "Content-Length"
	HeaderContentRange    = "Content-Range"
	HeaderContentType     = "Content-Type"
	HeaderETag            = "ETag"
	HeaderIfModifiedSince = "If-Modified-Since"
	HeaderIfNoneMatch     = "If-None-Match"
	HeaderIfRange         = "If-Range"
	HeaderLastModified    = "Last-Modified"
	HeaderLocation        = "Location"
	HeaderRange           = "Range"
	HeaderWarning         = "Warning"
)
