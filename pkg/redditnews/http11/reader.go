package http11

import (
	"bytes"
	"errors"
	"io"
	"strconv"
)

// Reader receives whole requests in chunks of the pool's size.
type Reader struct {
	chunks *ChunkPool
}

// NewReader creates a reader receiving blocksize bytes at a time.
func NewReader(blocksize int) *Reader {
	return &Reader{chunks: NewChunkPool(blocksize)}
}

// Pool exposes the chunk pool for instrumentation.
func (rd *Reader) Pool() *ChunkPool {
	return rd.chunks
}

// MaxRequestSize is the largest request the reader accepts.
func (rd *Reader) MaxRequestSize() int {
	return MaxBodySize + rd.chunks.Size()
}

// ReadRequest receives one request from r.
//
// A first chunk shorter than the block size is the whole request. A full
// chunk means more may follow: chunks are received until the header block
// is complete, and then until the body declared by Content-Length arrived.
// A header block without Content-Length ends the request.
func (rd *Reader) ReadRequest(r io.Reader) ([]byte, error) {
	chunk := rd.chunks.Get()
	defer rd.chunks.Put(chunk)
	buf := *chunk

	n, err := r.Read(buf)
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return nil, ErrEmptyRequest
		}
		return nil, err
	}
	data := append([]byte(nil), buf[:n]...)
	if n < len(buf) {
		return data, nil
	}

	limit := rd.MaxRequestSize()
	for {
		if end := bytes.Index(data, crlfcrlf); end >= 0 {
			length, found, err := findContentLength(data[:end])
			if err != nil {
				return nil, err
			}
			if !found {
				return data, nil
			}
			total := end + len(crlfcrlf) + length
			if total > limit {
				return nil, ErrRequestTooLarge
			}
			for len(data) < total {
				n, err := r.Read(buf)
				data = append(data, buf[:n]...)
				if err != nil {
					if errors.Is(err, io.EOF) {
						return data, nil
					}
					return nil, err
				}
			}
			return data, nil
		}

		if len(data) > limit {
			return nil, ErrRequestTooLarge
		}
		n, err := r.Read(buf)
		data = append(data, buf[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return data, nil
			}
			return nil, err
		}
	}
}

// findContentLength scans a header block for the first Content-Length.
func findContentLength(head []byte) (int, bool, error) {
	for _, line := range bytes.Split(head, crlf)[1:] {
		name, value, ok := bytes.Cut(line, []byte{':'})
		if !ok || !bytes.EqualFold(bytes.TrimSpace(name), []byte(HeaderContentLength)) {
			continue
		}
		n, err := strconv.Atoi(string(bytes.TrimSpace(value)))
		if err != nil || n < 0 {
			return 0, false, ErrInvalidContentLength
		}
		return n, true, nil
	}
	return 0, false, nil
}
