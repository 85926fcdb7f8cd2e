package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"
)

// Thin endpoint wrappers. Each returns the raw envelope; decoding, caching
// and pagination are left to the domain services.

// GetCurrentUser fetches the current user's profile.
func (c *Client) GetCurrentUser(ctx context.Context) Response {
	return c.Get(ctx, "/me")
}

// GetDevices fetches the user's available playback devices.
func (c *Client) GetDevices(ctx context.Context) Response {
	return c.Get(ctx, "/me/player/devices")
}

// GetPlaybackState fetches the current playback state.
func (c *Client) GetPlaybackState(ctx context.Context) Response {
	return c.Get(ctx, "/me/player")
}

// GetCurrentlyPlaying fetches the currently playing item. A 204 means nothing is playing.
func (c *Client) GetCurrentlyPlaying(ctx context.Context) Response {
	return c.Get(ctx, "/me/player/currently-playing")
}

// PageParams are the limit/offset query parameters of a paged endpoint.
type PageParams struct {
	Limit  int
	Offset int
}

func (p PageParams) apply(params map[string]string) map[string]string {
	if params == nil {
		params = make(map[string]string)
	}
	if p.Limit > 0 {
		params["limit"] = strconv.Itoa(p.Limit)
	}
	if p.Offset > 0 {
		params["offset"] = strconv.Itoa(p.Offset)
	}
	return params
}

// GetMyPlaylists fetches one page of the user's playlists.
func (c *Client) GetMyPlaylists(ctx context.Context, p PageParams) Response {
	return c.Get(ctx, BuildURL("/me/playlists", p.apply(nil)))
}

// CreatePlaylist creates a playlist owned by userID.
func (c *Client) CreatePlaylist(ctx context.Context, userID string, req CreatePlaylistRequest) Response {
	return c.Post(ctx, "/users/"+url.PathEscape(userID)+"/playlists", req)
}

// UnfollowPlaylist removes a playlist from the user's library.
func (c *Client) UnfollowPlaylist(ctx context.Context, playlistID string) Response {
	return c.Delete(ctx, "/playlists/"+url.PathEscape(playlistID)+"/followers", nil)
}

// FollowPlaylist adds a playlist to the user's library.
func (c *Client) FollowPlaylist(ctx context.Context, playlistID string, public bool) Response {
	return c.Put(ctx, "/playlists/"+url.PathEscape(playlistID)+"/followers", map[string]bool{"public": public})
}

// GetPlaylistTracks fetches one page of a playlist's tracks.
func (c *Client) GetPlaylistTracks(ctx context.Context, playlistID string, p PageParams) Response {
	return c.Get(ctx, BuildURL("/playlists/"+url.PathEscape(playlistID)+"/tracks", p.apply(nil)))
}

// AddPlaylistTracks inserts uris, at position when it is not nil.
func (c *Client) AddPlaylistTracks(ctx context.Context, playlistID string, uris []string, position *int) Response {
	body := map[string]any{"uris": uris}
	if position != nil {
		body["position"] = *position
	}
	return c.Post(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", body)
}

// ReplacePlaylistTracks overwrites the playlist with uris. An empty list clears it.
func (c *Client) ReplacePlaylistTracks(ctx context.Context, playlistID string, uris []string) Response {
	if uris == nil {
		uris = []string{}
	}
	return c.Put(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", map[string]any{"uris": uris})
}

// RemovePlaylistTracks removes every occurrence of uris.
func (c *Client) RemovePlaylistTracks(ctx context.Context, playlistID string, uris []string) Response {
	tracks := make([]map[string]string, len(uris))
	for i, u := range uris {
		tracks[i] = map[string]string{"uri": u}
	}
	return c.Delete(ctx, "/playlists/"+url.PathEscape(playlistID)+"/tracks", map[string]any{"tracks": tracks})
}

// GetSavedTracks fetches one page of the saved-tracks library.
func (c *Client) GetSavedTracks(ctx context.Context, p PageParams) Response {
	return c.Get(ctx, BuildURL("/me/tracks", p.apply(nil)))
}

// SaveTracks adds ids to the library.
func (c *Client) SaveTracks(ctx context.Context, ids []string) Response {
	return c.Put(ctx, BuildURL("/me/tracks", map[string]string{"ids": strings.Join(ids, ",")}), nil)
}

// RemoveSavedTracks removes ids from the library.
func (c *Client) RemoveSavedTracks(ctx context.Context, ids []string) Response {
	return c.Delete(ctx, BuildURL("/me/tracks", map[string]string{"ids": strings.Join(ids, ",")}), nil)
}

// ContainsSavedTracks checks which ids are in the library.
func (c *Client) ContainsSavedTracks(ctx context.Context, ids []string) Response {
	return c.Get(ctx, BuildURL("/me/tracks/contains", map[string]string{"ids": strings.Join(ids, ",")}))
}

// SearchType represents a type of Spotify content to search.
type SearchType string

const (
	SearchTypeTrack    SearchType = "track"
	SearchTypeArtist   SearchType = "artist"
	SearchTypeAlbum    SearchType = "album"
	SearchTypePlaylist SearchType = "playlist"
)

// SearchOptions configures a search query.
type SearchOptions struct {
	Query  string
	Types  []SearchType
	Market string
	PageParams
}

// Search runs a search query. Results are keyed by type, e.g. "tracks".
func (c *Client) Search(ctx context.Context, opts SearchOptions) Response {
	types := make([]string, len(opts.Types))
	for i, t := range opts.Types {
		types[i] = string(t)
	}
	if len(types) == 0 {
		types = []string{string(SearchTypeTrack)}
	}

	params := map[string]string{
		"q":    opts.Query,
		"type": strings.Join(types, ","),
	}
	if opts.Market != "" {
		params["market"] = opts.Market
	}

	return c.Get(ctx, BuildURL("/search", opts.PageParams.apply(params)))
}

// GetTopTracks fetches one page of the user's top tracks.
func (c *Client) GetTopTracks(ctx context.Context, timeRange string, p PageParams) Response {
	params := map[string]string{}
	if timeRange != "" {
		params["time_range"] = timeRange
	}
	return c.Get(ctx, BuildURL("/me/top/tracks", p.apply(params)))
}

// GetRecommendations fetches recommendations for the given query parameters.
func (c *Client) GetRecommendations(ctx context.Context, params map[string]string) Response {
	return c.Get(ctx, BuildURL("/recommendations", params))
}

// GetAudioFeatures fetches audio features for up to 100 ids.
func (c *Client) GetAudioFeatures(ctx context.Context, ids []string) Response {
	return c.Get(ctx, BuildURL("/audio-features", map[string]string{"ids": strings.Join(ids, ",")}))
}
