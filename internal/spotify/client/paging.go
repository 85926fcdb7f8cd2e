package client

import (
	"context"
	"encoding/json"
	"net/http"
)

// Page is one page of a Spotify paging object.
type Page struct {
	Items    []json.RawMessage `json:"items"`
	Next     *string           `json:"next"`
	Previous *string           `json:"previous"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// HasNext reports whether the page links to a following page.
func (p *Page) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

// ParsePage reads a paging object from data. When key is set the page is
// looked up under that top-level field, as in search results.
func ParsePage(data json.RawMessage, key string) (*Page, bool) {
	if len(data) == 0 {
		return nil, false
	}

	if key != "" {
		var wrapper map[string]json.RawMessage
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, false
		}
		nested, ok := wrapper[key]
		if !ok || len(nested) == 0 {
			return nil, false
		}
		data = nested
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, false
	}
	return &page, true
}

// Items builds the items of a single page without following next links.
func Items[T any](r Response, key string, build func(json.RawMessage) (T, bool)) []T {
	page, ok := ParsePage(r.Data, key)
	if !r.OK() || !ok {
		return nil
	}

	items := make([]T, 0, len(page.Items))
	for _, raw := range page.Items {
		if v, ok := build(raw); ok {
			items = append(items, v)
		}
	}
	return items
}

// Collect assembles items across pages, starting from the first response.
// Items keep upstream order. Fetching stops when max items (0 = unbounded)
// have been built, when a page has no next link, when a page fails or cannot
// be parsed, or when the next link points outside the API host. Collect never
// fails; it returns whatever was gathered.
func Collect[T any](ctx context.Context, c *Client, first Response, key string, build func(json.RawMessage) (T, bool), max int) []T {
	var items []T
	resp := first

	for {
		if !resp.OK() {
			return items
		}
		page, ok := ParsePage(resp.Data, key)
		if !ok {
			return items
		}

		for _, raw := range page.Items {
			if max > 0 && len(items) >= max {
				return items
			}
			if v, ok := build(raw); ok {
				items = append(items, v)
			}
		}

		if max > 0 && len(items) >= max {
			return items
		}
		if !page.HasNext() {
			return items
		}

		path, ok := c.relative(*page.Next)
		if !ok {
			c.logger.Debug("not following foreign next link", "next", *page.Next)
			return items
		}
		if ctx.Err() != nil {
			return items
		}
		resp = c.Do(ctx, http.MethodGet, path, nil)
	}
}
