package http11

import "errors"

// Reader and parser errors
var (
	// ErrEmptyRequest indicates the client sent nothing before closing
	ErrEmptyRequest = errors.New("http11: empty request")

	// ErrInvalidRequestLine indicates the request line is malformed
	// Request line format: METHOD TARGET PROTOCOL\r\n
	ErrInvalidRequestLine = errors.New("http11: invalid request line")

	// ErrInvalidPath indicates the request target is not an absolute path
	// or does not decode to a NUL-free path
	ErrInvalidPath = errors.New("http11: invalid request path")

	// ErrInvalidHeader indicates a header line without a colon
	ErrInvalidHeader = errors.New("http11: invalid HTTP header")

	// ErrInvalidContentLength indicates Content-Length header is malformed
	ErrInvalidContentLength = errors.New("http11: invalid Content-Length")

	// ErrRequestTooLarge indicates the request exceeds MaxRequestSize
	ErrRequestTooLarge = errors.New("http11: request too large")
)

// Range errors
var (
	// ErrMalformedRange indicates a Range value that is not bytes=<start>-<end>
	// Multipart ranges are reported as malformed
	ErrMalformedRange = errors.New("http11: malformed range")

	// ErrRangeNotSatisfiable indicates bounds outside the resource
	ErrRangeNotSatisfiable = errors.New("http11: range not satisfiable")
)
