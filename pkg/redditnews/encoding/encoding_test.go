package encoding

import (
	"bytes"
	stdbzip2 "compress/bzip2"
	stdgzip "compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const pattern = `text/.*|application/(javascript|json|xml)|image/svg\+xml`

var content = []byte(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40))

func decode(t *testing.T, name string, data []byte) []byte {
	t.Helper()
	var r io.Reader
	switch name {
	case Gzip:
		gr, err := stdgzip.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		r = gr
	case Bzip2:
		r = stdbzip2.NewReader(bytes.NewReader(data))
	case XZ:
		xr, err := xz.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		r = xr
	case Brotli:
		r = brotli.NewReader(bytes.NewReader(data))
	case Zstd:
		zr, err := zstd.NewReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer zr.Close()
		out, err := io.ReadAll(zr)
		require.NoError(t, err)
		return out
	default:
		t.Fatalf("unknown encoding %s", name)
	}
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return out
}

func TestEncodeRoundTrip(t *testing.T) {
	n, err := NewNegotiator(pattern, 256, true)
	require.NoError(t, err)

	for _, name := range []string{Gzip, Bzip2, XZ, Brotli, Zstd} {
		t.Run(name, func(t *testing.T) {
			out, got, err := n.Encode(content, "text/html", []string{name})
			require.NoError(t, err)
			assert.Equal(t, name, got)
			assert.Less(t, len(out), len(content))
			assert.Equal(t, content, decode(t, name, out))
		})
	}
}

func TestNegotiation(t *testing.T) {
	basic, err := NewNegotiator(pattern, 256, false)
	require.NoError(t, err)

	tests := []struct {
		name        string
		contentType string
		content     []byte
		accepted    []string
		want        string
	}{
		{"first supported wins", "text/html", content, []string{"deflate", "xz", "gzip"}, XZ},
		{"identity stops the walk", "text/html", content, []string{"identity", "gzip"}, ""},
		{"star stops the walk", "text/css", content, []string{"*", "gzip"}, ""},
		{"extended skipped when disabled", "text/html", content, []string{"br", "zstd", "bzip2"}, Bzip2},
		{"wildcard subtype", "text/x-anything", content, []string{"gzip"}, Gzip},
		{"incompressible type", "image/png", content, []string{"gzip"}, ""},
		{"type match is case-insensitive", "Application/JSON", content, []string{"gzip"}, Gzip},
		{"parameters ignored", "text/plain; charset=utf-8", content, []string{"gzip"}, Gzip},
		{"too small", "text/html", content[:256], []string{"gzip"}, ""},
		{"nothing supported", "text/html", content, []string{"deflate", "compress"}, ""},
		{"no list", "text/html", content, nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, got, err := basic.Encode(tt.content, tt.contentType, tt.accepted)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if got == "" {
				assert.Equal(t, tt.content, out)
			}
		})
	}
}

func TestNegotiatorRejectsBadPattern(t *testing.T) {
	_, err := NewNegotiator("text/(", 0, false)
	assert.Error(t, err)
}

func TestCompressibleRequiresFullMatch(t *testing.T) {
	n, err := NewNegotiator(`text/plain`, 0, false)
	require.NoError(t, err)
	assert.True(t, n.Compressible("text/plain", 1))
	assert.False(t, n.Compressible("text/plainer", 1))
	assert.False(t, n.Compressible("xtext/plain", 1))
}
