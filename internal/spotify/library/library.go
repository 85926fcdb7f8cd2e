// Package library implements the Spotify library services: the user
// profile, playlists and tracks. Each operation validates its input
// locally, goes through the client's retry-on-expiry protocol, assembles
// pages and caches the values that are read over and over.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tessro/cody/internal/core"
	"github.com/tessro/cody/internal/spotify/client"
)

// Cache keys.
const (
	KeyProfile   = "profile"
	KeyPlaylists = "playlists"
)

// Default cache lifetimes.
const (
	DefaultProfileTTL   = 10 * time.Minute
	DefaultPlaylistsTTL = 5 * time.Minute
)

const defaultLimit = 20

var errEmptyBody = errors.New("empty response from Spotify")

// Endpoint page size limits.
const (
	maxPlaylistsPage = 50
	maxItemsPage     = 100
	maxSavedPage     = 50
	maxSearchPage    = 50
	maxTopPage       = 50

	playlistChunk = 100
	savedChunk    = 50
	featuresMax   = 100
)

// ListOptions controls a paged listing.
type ListOptions struct {
	// Limit is the page size; it defaults to 20 and is clamped to the
	// endpoint maximum.
	Limit int
	// Offset is the index of the first item.
	Offset int
	// All follows next links until the listing is exhausted.
	All bool
	// Max caps the number of items returned when All is set (0 = no cap).
	Max int
}

// normalize clamps the options for an endpoint whose page size tops out at max.
func (o ListOptions) normalize(max int) (client.PageParams, int) {
	limit := o.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > max {
		limit = max
	}
	offset := o.Offset
	if offset < 0 {
		offset = 0
	}

	maxItems := limit
	if o.All {
		maxItems = o.Max
		if maxItems < 0 {
			maxItems = 0
		}
	}
	return client.PageParams{Limit: limit, Offset: offset}, maxItems
}

// invalid returns the local validation failure envelope.
func invalid[T any](err error) core.Response[T] {
	return core.Failure[T](http.StatusInternalServerError, err)
}

// carry converts a raw envelope into a typed one with empty data.
func carry[T any](r client.Response) core.Response[T] {
	return core.Convert[json.RawMessage, T](r)
}

// collect builds the items of a listing. With all set it follows next links
// up to maxItems; otherwise only the first page is used.
func collect[T any](ctx context.Context, c *client.Client, first client.Response, key string,
	build func(json.RawMessage) (T, bool), all bool, maxItems int) core.Response[[]T] {
	if !first.OK() {
		return carry[[]T](first)
	}

	var items []T
	if all {
		items = client.Collect(ctx, c, first, key, build, maxItems)
	} else {
		items = client.Items(first, key, build)
	}
	if items == nil {
		items = []T{}
	}
	return core.Success(first.Status, items)
}

// unconfigured returns a failure when there is neither an access token nor a
// refresh token to authenticate with.
func unconfigured[T any](c *client.Client) (core.Response[T], bool) {
	if c.Configured() {
		return core.Response[T]{}, false
	}
	return client.NotConfigured[T](), true
}

// TrackURI turns a track id, spotify:track URI or open.spotify.com link into a URI.
func TrackURI(ref string) string {
	return "spotify:track:" + TrackID(ref)
}

// TrackID extracts the bare id from a track id, URI or link.
func TrackID(ref string) string {
	return extractID(ref, "track")
}

// PlaylistID extracts the bare id from a playlist id, URI or link.
func PlaylistID(ref string) string {
	return extractID(ref, "playlist")
}

func extractID(ref, kind string) string {
	ref = strings.TrimSpace(ref)
	if rest, ok := strings.CutPrefix(ref, "spotify:"+kind+":"); ok {
		return rest
	}
	if strings.Contains(ref, "spotify.com/") && strings.Contains(ref, "/"+kind+"/") {
		if u, err := url.Parse(ref); err == nil {
			parts := strings.Split(strings.Trim(u.Path, "/"), "/")
			for i := 0; i+1 < len(parts); i++ {
				if parts[i] == kind {
					return parts[i+1]
				}
			}
		}
	}
	return ref
}

// cleanIDs drops blanks and maps every reference through fn.
func cleanIDs(refs []string, fn func(string) string) []string {
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if strings.TrimSpace(r) == "" {
			continue
		}
		out = append(out, fn(r))
	}
	return out
}

func chunk(items []string, size int) [][]string {
	var chunks [][]string
	for size < len(items) {
		items, chunks = items[size:], append(chunks, items[:size])
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}
