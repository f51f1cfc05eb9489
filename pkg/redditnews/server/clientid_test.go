package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/za419/reddit-news/pkg/redditnews/http11"
)

func parse(t *testing.T, headers string) *http11.Request {
	t.Helper()
	req, err := http11.ParseRequest([]byte("GET / HTTP/1.1\r\nHost: x\r\n" + headers + "\r\n"))
	require.NoError(t, err)
	return req
}

func TestClientID(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		request string
		want    string
	}{
		{"no header configured", "", "X-Forwarded-For: 10.0.0.1\r\n", "127.0.0.1"},
		{"header absent", "X-Forwarded-For", "", "127.0.0.1"},
		{"forwarded for list", "X-Forwarded-For", "X-Forwarded-For: 10.0.0.1, 10.0.0.2\r\n", "10.0.0.1"},
		{"forwarded ipv4 port", "Forwarded", "Forwarded: proto=http;for=\"192.0.2.60:4711\";by=203.0.113.43\r\n", "192.0.2.60"},
		{"forwarded ipv6", "Forwarded", "Forwarded: For=\"[2001:db8:cafe::17]:4711\"\r\n", "2001:db8:cafe::17"},
		{"forwarded plain", "Forwarded", "Forwarded: for=192.0.2.43, for=198.51.100.17\r\n", "192.0.2.43"},
		{"custom header", "X-Real-IP", "X-Real-IP: 172.16.0.9\r\n", "172.16.0.9"},
		{"prefix match", "X-Client", "X-Client-Name: alice\r\n", "alice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clientID(tt.header, "127.0.0.1", parse(t, tt.request)))
		})
	}
}
