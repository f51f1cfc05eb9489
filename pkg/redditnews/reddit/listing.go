package reddit

import (
	"bytes"

	"github.com/goccy/go-json"

	"github.com/za419/reddit-news/pkg/redditnews/api"
)

type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Selftext string `json:"selftext"`
	URL      string `json:"url"`
	IsSelf   bool   `json:"is_self"`
}

type commentData struct {
	ID        string `json:"id"`
	Permalink string `json:"permalink"`
	Body      string `json:"body"`

	// Replies is a listing, or "" for a leaf.
	Replies json.RawMessage `json:"replies"`
}

type moreData struct {
	Children []string `json:"children"`
}

type moreChildrenResponse struct {
	JSON struct {
		Data struct {
			Things []thing `json:"things"`
		} `json:"data"`
	} `json:"json"`
}

// flattener collects comments depth-first and queues "more" stubs.
type flattener struct {
	comments []api.Comment
	more     []moreData
}

func (f *flattener) walk(things []thing) {
	for _, t := range things {
		switch t.Kind {
		case "t1":
			var c commentData
			if err := json.Unmarshal(t.Data, &c); err != nil {
				log.Debugf("Skipping undecodable comment: %v", err)
				continue
			}
			f.comments = append(f.comments, api.Comment{ID: c.ID, Permalink: c.Permalink, Body: c.Body})
			if r := bytes.TrimSpace(c.Replies); len(r) > 0 && r[0] == '{' {
				var replies listing
				if err := json.Unmarshal(r, &replies); err == nil {
					f.walk(replies.Data.Children)
				}
			}
		case "more":
			var m moreData
			if err := json.Unmarshal(t.Data, &m); err == nil {
				f.more = append(f.more, m)
			}
		}
	}
}
