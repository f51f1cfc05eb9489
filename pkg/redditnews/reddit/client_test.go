package reddit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/za419/reddit-news/pkg/redditnews/api"
)

const threadJSON = `[
  {"kind": "Listing", "data": {"children": [
    {"kind": "t3", "data": {"name": "t3_abc123", "title": "Title", "is_self": %t, "selftext": "self text", "url": "%s/article"}}
  ]}},
  {"kind": "Listing", "data": {"children": [
    {"kind": "t1", "data": {"id": "c1", "permalink": "/r/news/comments/abc123/title/c1/", "body": "first", "replies": {
      "kind": "Listing", "data": {"children": [
        {"kind": "t1", "data": {"id": "c2", "permalink": "/r/news/comments/abc123/title/c2/", "body": "nested", "replies": ""}}
      ]}}}},
    {"kind": "t1", "data": {"id": "c3", "permalink": "/r/news/comments/abc123/title/c3/", "body": "third", "replies": ""}},
    {"kind": "more", "data": {"children": ["c4", "c5"]}}
  ]}}
]`

const moreJSON = `{"json": {"errors": [], "data": {"things": [
  {"kind": "t1", "data": {"id": "c4", "permalink": "/r/news/comments/abc123/title/c4/", "body": "fourth", "replies": ""}},
  {"kind": "t1", "data": {"id": "c5", "permalink": "/r/news/comments/abc123/title/c5/", "body": "fifth", "replies": ""}}
]}}}`

// brokenMoreJSON decodes a stale comment before failing.
const brokenMoreJSON = `{"json": {"errors": [], "data": {"things": [
  {"kind": "t1", "data": {"id": "stale", "permalink": "/r/news/comments/abc123/title/stale/", "body": "stale", "replies": ""}},
  {"kind": "t1", "data": {"id": `

const articleHTML = `<html><head><title>t</title><script>var x = 1;</script></head>
<body><nav>menu</nav><article><h1>Headline</h1><p>Body   text
here.</p><style>p{}</style><p>Second.</p></article><footer>foot</footer></body></html>`

type fakeReddit struct {
	*httptest.Server
	isSelf       bool
	moreFails    int32
	moreBroken   int32
	moreCalls    atomic.Int32
	userAgents   chan string
	lastChildren atomic.Value
}

func newFakeReddit(t *testing.T, isSelf bool) *fakeReddit {
	f := &fakeReddit{isSelf: isSelf, userAgents: make(chan string, 16)}
	mux := http.NewServeMux()
	mux.HandleFunc("/comments/abc123.json", func(w http.ResponseWriter, r *http.Request) {
		select {
		case f.userAgents <- r.UserAgent():
		default:
		}
		fmt.Fprintf(w, threadJSON, f.isSelf, f.URL)
	})
	mux.HandleFunc("/api/morechildren.json", func(w http.ResponseWriter, r *http.Request) {
		n := f.moreCalls.Add(1)
		f.lastChildren.Store(r.URL.Query().Get("children"))
		if n <= atomic.LoadInt32(&f.moreFails) {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if n <= atomic.LoadInt32(&f.moreFails)+atomic.LoadInt32(&f.moreBroken) {
			fmt.Fprint(w, brokenMoreJSON)
			return
		}
		assert.Equal(t, "t3_abc123", r.URL.Query().Get("link_id"))
		fmt.Fprint(w, moreJSON)
	})
	mux.HandleFunc("/article", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML)
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newClient(f *fakeReddit) *Client {
	return NewClient(Config{BaseURL: f.URL, InitialBackoff: time.Millisecond, Timeout: 2 * time.Second})
}

func ids(comments []api.Comment) []string {
	out := make([]string, len(comments))
	for i, c := range comments {
		out[i] = c.ID
	}
	return out
}

func intPtr(n int) *int { return &n }

func TestFetchFlattensDepthFirst(t *testing.T) {
	f := newFakeReddit(t, true)
	text, comments, err := newClient(f).Fetch(context.Background(), api.Query{Target: "abc123"})
	require.NoError(t, err)

	assert.Equal(t, "self text", text)
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids(comments))
	assert.Equal(t, "/r/news/comments/abc123/title/c2/", comments[1].Permalink)
	assert.Equal(t, "nested", comments[1].Body)
	assert.Equal(t, int32(0), f.moreCalls.Load())
	assert.Equal(t, "Comment Fetcher", <-f.userAgents)
}

func TestFetchLimit(t *testing.T) {
	f := newFakeReddit(t, true)
	_, comments, err := newClient(f).Fetch(context.Background(), api.Query{Target: "abc123", Limit: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, ids(comments))
}

func TestFetchAlternateExpandsMore(t *testing.T) {
	f := newFakeReddit(t, true)
	_, comments, err := newClient(f).Fetch(context.Background(), api.Query{Target: "abc123", Alternate: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, ids(comments))
	assert.Equal(t, "c4,c5", f.lastChildren.Load())

	_, comments, err = newClient(f).Fetch(context.Background(), api.Query{Target: "abc123", Alternate: true, Limit: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids(comments))
}

func TestFetchRetriesMore(t *testing.T) {
	f := newFakeReddit(t, true)
	atomic.StoreInt32(&f.moreFails, 2)
	_, comments, err := newClient(f).Fetch(context.Background(), api.Query{Target: "abc123", Alternate: true})
	require.NoError(t, err)
	assert.Len(t, comments, 5)
	assert.Equal(t, int32(3), f.moreCalls.Load())
}

func TestFetchRetryDiscardsFailedDecode(t *testing.T) {
	f := newFakeReddit(t, true)
	atomic.StoreInt32(&f.moreBroken, 1)
	_, comments, err := newClient(f).Fetch(context.Background(), api.Query{Target: "abc123", Alternate: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, ids(comments))
	assert.Equal(t, int32(2), f.moreCalls.Load())
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	f := newFakeReddit(t, true)
	atomic.StoreInt32(&f.moreFails, 100)
	_, _, err := newClient(f).Fetch(context.Background(), api.Query{Target: "abc123", Alternate: true})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Status)
	assert.Equal(t, int32(4), f.moreCalls.Load())
}

func TestFetchLinkedArticle(t *testing.T) {
	f := newFakeReddit(t, false)
	text, _, err := newClient(f).Fetch(context.Background(), api.Query{Target: f.URL + "/r/news/comments/abc123/title/"})
	require.NoError(t, err)
	assert.Equal(t, "Headline\nBody text here.\nSecond.", text)
}

func TestFetchErrors(t *testing.T) {
	f := newFakeReddit(t, true)
	c := newClient(f)

	_, _, err := c.Fetch(context.Background(), api.Query{Target: "https://example.com/not/a/thread"})
	assert.ErrorIs(t, err, ErrInvalidTarget)

	_, _, err = c.Fetch(context.Background(), api.Query{Target: "zzz999"})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.Status)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = c.Fetch(ctx, api.Query{Target: "abc123"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThreadID(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{"abc123", "abc123"},
		{"t3_abc123", "abc123"},
		{"https://www.reddit.com/r/news/comments/abc123/some_title/", "abc123"},
		{"reddit.com/r/news/comments/abc123", "abc123"},
		{"https://old.reddit.com/comments/abc123/", "abc123"},
		{"https://redd.it/abc123", "abc123"},
		{"  abc123  ", "abc123"},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := ThreadID(tt.target)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "https://www.reddit.com/r/news/", "not a thread!", "https://redd.it/"} {
		_, err := ThreadID(bad)
		assert.ErrorIs(t, err, ErrInvalidTarget, bad)
	}
}

func TestExtractText(t *testing.T) {
	text, err := ExtractText([]byte(`<html><body><p>One</p><div>Two <b>bold</b></div><script>no</script></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "One\nTwo bold", text)
	assert.False(t, strings.Contains(text, "no"))
}
