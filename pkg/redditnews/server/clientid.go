package server

import (
	"strings"

	"github.com/za419/reddit-news/pkg/redditnews/http11"
)

// clientID names the client behind a request for logging. With no
// identification header configured, or none present, it is the peer address.
func clientID(header, peer string, req *http11.Request) string {
	if header == "" || req == nil {
		return peer
	}
	h, ok := req.HeaderPrefix(header)
	if !ok {
		return peer
	}

	var id string
	switch strings.ToLower(header) {
	case "x-forwarded-for":
		first, _, _ := strings.Cut(h.Value, ",")
		id = strings.TrimSpace(first)
	case "forwarded":
		id = forwardedFor(h.Value)
	default:
		id = strings.TrimSpace(h.Value)
	}
	if id == "" {
		return peer
	}
	return id
}

// forwardedFor extracts the first for= parameter of a Forwarded value,
// without quotes, brackets or port.
func forwardedFor(value string) string {
	for _, elem := range strings.Split(value, ",") {
		for _, pair := range strings.Split(elem, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || !strings.EqualFold(k, "for") {
				continue
			}
			v = strings.Trim(v, `"`)
			if strings.HasPrefix(v, "[") {
				if end := strings.IndexByte(v, ']'); end > 0 {
					return v[1:end]
				}
				return strings.Trim(v, "[]")
			}
			if host, _, ok := strings.Cut(v, ":"); ok && strings.Count(v, ":") == 1 {
				return host
			}
			return v
		}
	}
	return ""
}
