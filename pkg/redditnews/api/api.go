// Package api implements the /process endpoint: it decodes the submitted
// form, calls the comment fetcher and encodes the result as JSON.
package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/dapr/kit/logger"
	"github.com/goccy/go-json"
)

var log = logger.NewLogger("reddit-news.api")

// Path is the only target accepting POST.
const Path = "/process"

// ContentType of the endpoint's responses.
const ContentType = "application/json"

// Comment is one fetched comment. It is encoded as the three-element
// array [id, permalink, body].
type Comment struct {
	ID        string
	Permalink string
	Body      string
}

// MarshalJSON implements json.Marshaler.
func (c Comment) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{c.ID, c.Permalink, c.Body})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Comment) UnmarshalJSON(data []byte) error {
	var fields [3]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	c.ID, c.Permalink, c.Body = fields[0], fields[1], fields[2]
	return nil
}

// Query is the decoded form of a process request.
type Query struct {
	// Target is a thread URL or ID.
	Target string

	// Limit bounds the work of the fetch. Nil means unlimited.
	Limit *int

	// Alternate selects the fetch strategy that also expands collapsed
	// "more comments" stubs, at most Limit of them.
	Alternate bool
}

// Fetcher retrieves the article text and comments of a thread.
type Fetcher interface {
	Fetch(ctx context.Context, q Query) (string, []Comment, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, q Query) (string, []Comment, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, q Query) (string, []Comment, error) {
	return f(ctx, q)
}

// ParseQuery decodes the form fields target, limit and comments2.
// A zero limit without comments2 means no limit.
func ParseQuery(body []byte) (Query, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return Query{}, &BadRequestError{Field: "body", Err: err}
	}

	var q Query
	if q.Target = strings.TrimSpace(values.Get("target")); q.Target == "" {
		return Query{}, &BadRequestError{Field: "target", Err: errMissing}
	}
	if !values.Has("limit") {
		return Query{}, &BadRequestError{Field: "limit", Err: errMissing}
	}
	limit, err := strconv.Atoi(strings.TrimSpace(values.Get("limit")))
	if err != nil || limit < 0 {
		return Query{}, &BadRequestError{Field: "limit", Err: errNotCount}
	}
	if !values.Has("comments2") {
		return Query{}, &BadRequestError{Field: "comments2", Err: errMissing}
	}
	q.Alternate = values.Get("comments2") == "true"
	if limit != 0 || q.Alternate {
		q.Limit = &limit
	}
	return q, nil
}

// Result is the JSON document returned by the endpoint.
type Result struct {
	Text     string    `json:"text"`
	Comments []Comment `json:"comments"`
}

// Handler serves process requests with one Fetcher.
type Handler struct {
	fetcher Fetcher
}

// NewHandler creates a handler calling f.
func NewHandler(f Fetcher) *Handler {
	return &Handler{fetcher: f}
}

// Process decodes body, fetches synchronously and returns the encoded
// Result. Malformed bodies fail with a *BadRequestError, fetch failures
// with a *FetchError.
func (h *Handler) Process(ctx context.Context, body []byte) ([]byte, error) {
	log.Debugf("Query body: %s", body)
	q, err := ParseQuery(body)
	if err != nil {
		return nil, err
	}

	strategy := "comments"
	if q.Alternate {
		strategy = "comments2"
	}
	limit := "none"
	if q.Limit != nil {
		limit = strconv.Itoa(*q.Limit)
	}
	log.Debugf("Fetching information for %s, limit %s, using %s.", q.Target, limit, strategy)

	text, comments, err := h.fetcher.Fetch(ctx, q)
	if err != nil {
		return nil, &FetchError{Target: q.Target, Err: err}
	}
	if comments == nil {
		comments = []Comment{}
	}
	out, err := json.Marshal(Result{Text: text, Comments: comments})
	if err != nil {
		return nil, fmt.Errorf("api: encode result: %w", err)
	}
	return out, nil
}
