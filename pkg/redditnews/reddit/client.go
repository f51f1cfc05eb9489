// Package reddit is the default comment fetcher: it reads a thread through
// Reddit's public JSON endpoints and scrapes the linked article's text.
package reddit

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dapr/kit/logger"
	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/za419/reddit-news/pkg/redditnews/api"
)

var log = logger.NewLogger("reddit-news.reddit")

// ErrInvalidTarget indicates a target that names no thread.
var ErrInvalidTarget = errors.New("reddit: target is not a thread URL or ID")

// StatusError reports an unexpected HTTP status from a remote endpoint.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("reddit: GET %s: status %d", e.URL, e.Status)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the Reddit origin. Default: https://www.reddit.com
	BaseURL string

	// UserAgent sent with every request. Default: "Comment Fetcher"
	UserAgent string

	// Timeout bounds each remote call when the context has no deadline.
	// Default: 15s
	Timeout time.Duration

	// MaxRetries bounds retries of a failed "more comments" expansion.
	// Default: 3
	MaxRetries uint64

	// InitialBackoff is the first retry delay, doubled on each attempt.
	// Default: 500ms
	InitialBackoff time.Duration

	// MaxRedirects followed when fetching a linked article. Default: 5
	MaxRedirects int

	// MaxBodySize bounds every response body. Default: 8 MiB
	MaxBodySize int
}

// DefaultConfig returns the configuration used against reddit.com.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://www.reddit.com",
		UserAgent:      "Comment Fetcher",
		Timeout:        15 * time.Second,
		MaxRetries:     3,
		InitialBackoff: 500 * time.Millisecond,
		MaxRedirects:   5,
		MaxBodySize:    8 << 20,
	}
}

// Client implements api.Fetcher.
type Client struct {
	cfg  Config
	http *fasthttp.Client
}

// NewClient creates a client. Zero fields of cfg take their defaults.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = def.MaxRedirects
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = def.MaxBodySize
	}
	return &Client{
		cfg: cfg,
		http: &fasthttp.Client{
			Name:                cfg.UserAgent,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxResponseBodySize: cfg.MaxBodySize,
		},
	}
}

var _ api.Fetcher = (*Client)(nil)

// Fetch returns the article text and the flattened comments of the thread
// q.Target names.
//
// Without q.Alternate the thread's comment tree is flattened as served and
// q.Limit, when set, caps the number of comments. With q.Alternate up to
// q.Limit collapsed "more comments" stubs (all of them when nil) are
// expanded through /api/morechildren before flattening finishes.
func (c *Client) Fetch(ctx context.Context, q api.Query) (string, []api.Comment, error) {
	id, err := ThreadID(q.Target)
	if err != nil {
		return "", nil, err
	}

	var listings []listing
	if err := c.getJSON(ctx, c.cfg.BaseURL+"/comments/"+id+".json?raw_json=1", &listings); err != nil {
		return "", nil, err
	}
	if len(listings) < 2 || len(listings[0].Data.Children) == 0 {
		return "", nil, fmt.Errorf("reddit: thread %s: unexpected listing shape", id)
	}
	var post postData
	if err := json.Unmarshal(listings[0].Data.Children[0].Data, &post); err != nil {
		return "", nil, fmt.Errorf("reddit: thread %s: decode post: %w", id, err)
	}

	f := &flattener{}
	f.walk(listings[1].Data.Children)

	if q.Alternate {
		budget := -1
		if q.Limit != nil {
			budget = *q.Limit
		}
		if err := c.expand(ctx, post.Name, f, budget); err != nil {
			return "", nil, err
		}
	} else if q.Limit != nil && len(f.comments) > *q.Limit {
		f.comments = f.comments[:*q.Limit]
	}

	return c.articleText(ctx, post), f.comments, nil
}

// expand replaces up to budget "more" stubs (unlimited when negative).
func (c *Client) expand(ctx context.Context, linkID string, f *flattener, budget int) error {
	for len(f.more) > 0 && budget != 0 {
		stub := f.more[0]
		f.more = f.more[1:]
		if len(stub.Children) == 0 {
			continue
		}
		budget--

		things, err := c.moreChildren(ctx, linkID, stub.Children)
		if err != nil {
			return err
		}
		f.walk(things)
	}
	return nil
}

const moreChildrenBatch = 100

func (c *Client) moreChildren(ctx context.Context, linkID string, children []string) ([]thing, error) {
	var things []thing
	for start := 0; start < len(children); start += moreChildrenBatch {
		end := min(start+moreChildrenBatch, len(children))
		values := url.Values{
			"api_type": {"json"},
			"link_id":  {linkID},
			"children": {strings.Join(children[start:end], ",")},
			"raw_json": {"1"},
		}
		target := c.cfg.BaseURL + "/api/morechildren.json?" + values.Encode()

		var batch []thing
		op := func() error {
			var resp moreChildrenResponse
			err := c.getJSON(ctx, target, &resp)
			var se *StatusError
			if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 && se.Status != 429 {
				return backoff.Permanent(err)
			}
			if err != nil {
				return err
			}
			batch = resp.JSON.Data.Things
			return nil
		}
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = c.cfg.InitialBackoff
		notify := func(err error, wait time.Duration) {
			log.Warnf("Expanding comments of %s failed, retrying in %s: %v", linkID, wait, err)
		}
		err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(b, c.cfg.MaxRetries), ctx), notify)
		if err != nil {
			return nil, err
		}
		things = append(things, batch...)
	}
	return things, nil
}

func (c *Client) do(ctx context.Context, target string, redirects bool) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(target)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(c.cfg.UserAgent)

	var err error
	if redirects {
		err = c.http.DoRedirects(req, resp, c.cfg.MaxRedirects)
	} else {
		deadline, ok := ctx.Deadline()
		if !ok {
			deadline = time.Now().Add(c.cfg.Timeout)
		}
		err = c.http.DoDeadline(req, resp, deadline)
	}
	if err != nil {
		return 0, nil, fmt.Errorf("reddit: GET %s: %w", target, err)
	}
	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}

func (c *Client) getJSON(ctx context.Context, target string, v any) error {
	status, body, err := c.do(ctx, target, false)
	if err != nil {
		return err
	}
	if status != fasthttp.StatusOK {
		return &StatusError{URL: target, Status: status}
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("reddit: decode %s: %w", target, err)
	}
	return nil
}

// articleText returns a self post's text or the scraped text of the linked
// page. Pages that cannot be fetched yield an empty text.
func (c *Client) articleText(ctx context.Context, post postData) string {
	if post.IsSelf || post.URL == "" {
		return post.Selftext
	}
	status, body, err := c.do(ctx, post.URL, true)
	if err == nil && status != fasthttp.StatusOK {
		err = &StatusError{URL: post.URL, Status: status}
	}
	if err != nil {
		log.Warnf("Could not fetch article %s: %v", post.URL, err)
		return ""
	}
	text, err := ExtractText(body)
	if err != nil {
		log.Warnf("Could not parse article %s: %v", post.URL, err)
		return ""
	}
	return text
}

var (
	bareID    = regexp.MustCompile(`^[a-z0-9]{1,12}$`)
	fullnameT = regexp.MustCompile(`^t3_([a-z0-9]{1,12})$`)
)

// ThreadID extracts the thread ID from a thread URL, a redd.it short link,
// a t3_ fullname or a bare ID.
func ThreadID(target string) (string, error) {
	target = strings.TrimSpace(target)
	if bareID.MatchString(target) {
		return target, nil
	}
	if m := fullnameT.FindStringSubmatch(target); m != nil {
		return m[1], nil
	}

	if !strings.Contains(target, "://") {
		target = "https://" + target
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "redd.it" && len(parts) == 1 && bareID.MatchString(parts[0]) {
		return parts[0], nil
	}
	for i, part := range parts {
		if part == "comments" && i+1 < len(parts) && bareID.MatchString(parts[i+1]) {
			return parts[i+1], nil
		}
	}
	return "", ErrInvalidTarget
}
