package http11

import (
	"strconv"
	"strings"
)

// ByteRange is an inclusive byte range.
type ByteRange struct {
	Start int
	End   int
}

// Len returns the number of bytes in the range.
func (r ByteRange) Len() int {
	return r.End - r.Start + 1
}

// ContentRange renders the Content-Range value of a satisfied range.
func (r ByteRange) ContentRange(length int) string {
	return "bytes " + strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End) + "/" + strconv.Itoa(length)
}

// UnsatisfiedRange renders the Content-Range value of a 416.
func UnsatisfiedRange(length int) string {
	return "*/" + strconv.Itoa(length)
}

// ParseRange parses a Range value of the form bytes=<start>-<end> against a
// resource of length bytes. A missing start means 0 and a missing end means
// length-1. The returned range is populated as far as it was parsed even
// when an error is returned.
func ParseRange(value string, length int) (ByteRange, error) {
	r := ByteRange{Start: -1, End: -1}
	set, ok := strings.CutPrefix(strings.TrimSpace(value), "bytes=")
	if !ok || strings.Contains(set, ",") {
		return r, ErrMalformedRange
	}
	first, last, ok := strings.Cut(set, "-")
	if !ok {
		return r, ErrMalformedRange
	}

	var err error
	if first = strings.TrimSpace(first); first == "" {
		r.Start = 0
	} else if r.Start, err = strconv.Atoi(first); err != nil {
		return ByteRange{Start: -1, End: -1}, ErrMalformedRange
	}
	if last = strings.TrimSpace(last); last == "" {
		r.End = length - 1
	} else if r.End, err = strconv.Atoi(last); err != nil {
		return ByteRange{Start: -1, End: -1}, ErrMalformedRange
	}

	if r.Start < 0 || r.End >= length || r.Start > r.End {
		return r, ErrRangeNotSatisfiable
	}
	return r, nil
}
