package http11

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	const length = 100
	tests := []struct {
		value string
		want  ByteRange
		err   error
	}{
		{"bytes=0-9", ByteRange{0, 9}, nil},
		{"bytes=10-", ByteRange{10, 99}, nil},
		{"bytes=-20", ByteRange{0, 20}, nil},
		{"bytes=-", ByteRange{0, 99}, nil},
		{"bytes=99-99", ByteRange{99, 99}, nil},
		{"bytes=0-100", ByteRange{0, 100}, ErrRangeNotSatisfiable},
		{"bytes=50-10", ByteRange{50, 10}, ErrRangeNotSatisfiable},
		{"bytes=100-", ByteRange{100, 99}, ErrRangeNotSatisfiable},
		{"bytes=0-1,5-6", ByteRange{-1, -1}, ErrMalformedRange},
		{"bytes=a-b", ByteRange{-1, -1}, ErrMalformedRange},
		{"items=0-1", ByteRange{-1, -1}, ErrMalformedRange},
		{"bytes=5", ByteRange{-1, -1}, ErrMalformedRange},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseRange(tt.value, length)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContentRange(t *testing.T) {
	r := ByteRange{Start: 5, End: 9}
	assert.Equal(t, 5, r.Len())
	assert.Equal(t, "bytes 5-9/10", r.ContentRange(10))
	assert.Equal(t, "*/10", UnsatisfiedRange(10))
}
