// Package encoding negotiates and applies response Content-Encoding.
package encoding

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"github.com/valyala/bytebufferpool"
)

// Encoding names as they appear in Accept-Encoding and Content-Encoding.
const (
	Identity = "identity"
	Any      = "*"
	Gzip     = "gzip"
	Bzip2    = "bzip2"
	XZ       = "xz"
	Brotli   = "br"
	Zstd     = "zstd"
)

// Negotiator picks the first encoding of the client's list that it
// supports and compresses content with it.
type Negotiator struct {
	pattern  *regexp.Regexp
	minSize  int
	extended bool
	zstd     *zstd.Encoder
}

// NewNegotiator compiles pattern, which must match a whole MIME type
// (case-insensitively) for content to be compressed. Content of minSize
// bytes or less is never compressed. extended enables br and zstd.
func NewNegotiator(pattern string, minSize int, extended bool) (*Negotiator, error) {
	re, err := regexp.Compile(`(?i)^(?:` + pattern + `)$`)
	if err != nil {
		return nil, fmt.Errorf("encoding: compile %q: %w", pattern, err)
	}
	n := &Negotiator{pattern: re, minSize: minSize, extended: extended}
	if extended {
		n.zstd, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		if err != nil {
			return nil, fmt.Errorf("encoding: zstd: %w", err)
		}
	}
	return n, nil
}

// Compressible reports whether content of this type and size may be encoded.
func (n *Negotiator) Compressible(contentType string, size int) bool {
	if size <= n.minSize {
		return false
	}
	mime, _, _ := strings.Cut(contentType, ";")
	return n.pattern.MatchString(strings.TrimSpace(mime))
}

// Encode walks accepted in order and applies the first supported encoding.
// identity and * stop the walk without encoding. The returned name is empty
// when the content is returned unchanged.
func (n *Negotiator) Encode(content []byte, contentType string, accepted []string) ([]byte, string, error) {
	if len(accepted) == 0 || !n.Compressible(contentType, len(content)) {
		return content, "", nil
	}
	for _, name := range accepted {
		switch name {
		case Identity, Any:
			return content, "", nil
		case Gzip, Bzip2, XZ:
		case Brotli, Zstd:
			if !n.extended {
				continue
			}
		default:
			continue
		}
		out, err := n.compress(name, content)
		if err != nil {
			return nil, "", fmt.Errorf("encoding: %s: %w", name, err)
		}
		return out, name, nil
	}
	return content, "", nil
}

func (n *Negotiator) compress(name string, content []byte) ([]byte, error) {
	if name == Zstd {
		return n.zstd.EncodeAll(content, make([]byte, 0, len(content)/2)), nil
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	var (
		w   io.WriteCloser
		err error
	)
	switch name {
	case Gzip:
		w, err = gzip.NewWriterLevel(buf, gzip.BestCompression)
	case Bzip2:
		w, err = bzip2.NewWriter(buf, &bzip2.WriterConfig{Level: bzip2.BestCompression})
	case XZ:
		w, err = xz.NewWriter(buf)
	case Brotli:
		w = brotli.NewWriterLevel(buf, brotli.DefaultCompression)
	default:
		return nil, fmt.Errorf("unsupported encoding")
	}
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(content); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), buf.B...), nil
}
