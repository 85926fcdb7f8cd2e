package library

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/tessro/cody/internal/cache"
	"github.com/tessro/cody/internal/core"
	cerrors "github.com/tessro/cody/internal/errors"
	"github.com/tessro/cody/internal/spotify/client"
)

// Playlists serves the user's playlists and their tracks.
type Playlists struct {
	client   *client.Client
	cache    *cache.Cache
	profiles *Profiles
	ttl      time.Duration
}

// NewPlaylists creates the playlist service. A zero ttl uses DefaultPlaylistsTTL.
func NewPlaylists(c *client.Client, cc *cache.Cache, profiles *Profiles, ttl time.Duration) *Playlists {
	if ttl <= 0 {
		ttl = DefaultPlaylistsTTL
	}
	return &Playlists{client: c, cache: cc, profiles: profiles, ttl: ttl}
}

// List returns the user's playlists. A cached full listing answers any
// request without I/O; with All the full listing is fetched and cached.
func (p *Playlists) List(ctx context.Context, opts ListOptions) core.Response[[]core.Playlist] {
	params, maxItems := opts.normalize(maxPlaylistsPage)

	if all, ok := cache.Get[[]core.Playlist](p.cache, KeyPlaylists); ok {
		return core.Success(http.StatusOK, slices.Clone(window(all, params.Offset, maxItems)))
	}
	if resp, ok := unconfigured[[]core.Playlist](p.client); ok {
		return resp
	}

	if !opts.All {
		return collect(ctx, p.client, p.client.GetMyPlaylists(ctx, params), "", buildPlaylist, false, maxItems)
	}

	all := p.all(ctx)
	if !all.OK() {
		return all
	}
	return core.Success(all.Status, slices.Clone(window(all.Data, params.Offset, maxItems)))
}

// all fetches (or reads from cache) the complete playlist listing. The
// returned slice is a copy the caller may modify.
func (p *Playlists) all(ctx context.Context) core.Response[[]core.Playlist] {
	if all, ok := cache.Get[[]core.Playlist](p.cache, KeyPlaylists); ok {
		return core.Success(http.StatusOK, slices.Clone(all))
	}
	if resp, ok := unconfigured[[]core.Playlist](p.client); ok {
		return resp
	}

	first := p.client.GetMyPlaylists(ctx, client.PageParams{Limit: maxPlaylistsPage})
	if !first.OK() {
		return carry[[]core.Playlist](first)
	}

	items := client.Collect(ctx, p.client, first, "", buildPlaylist, 0)
	if items == nil {
		items = []core.Playlist{}
	}
	p.cache.Set(KeyPlaylists, slices.Clone(items), p.ttl)
	return core.Success(first.Status, items)
}

// FindByName returns the first playlist in the listing named name.
func (p *Playlists) FindByName(ctx context.Context, name string) core.Response[*core.Playlist] {
	all := p.all(ctx)
	if !all.OK() {
		return core.Convert[[]core.Playlist, *core.Playlist](all)
	}
	for i := range all.Data {
		if all.Data[i].Name == name {
			return core.Success(http.StatusOK, &all.Data[i])
		}
	}
	for i := range all.Data {
		if strings.EqualFold(all.Data[i].Name, name) {
			return core.Success(http.StatusOK, &all.Data[i])
		}
	}
	return core.Failure[*core.Playlist](http.StatusNotFound, fmt.Errorf("%w: %q", cerrors.ErrPlaylistNotFound, name))
}

// Resolve turns a playlist link, URI, id or name into an id. Links and URIs
// are parsed locally; anything that looks like a bare id is used as-is;
// everything else is looked up by name.
func (p *Playlists) Resolve(ctx context.Context, ref string) core.Response[string] {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return invalid[string](cerrors.ErrPlaylistNotFound)
	}
	if id := PlaylistID(ref); id != ref {
		return core.Success(http.StatusOK, id)
	}
	if looksLikeID(ref) {
		return core.Success(http.StatusOK, ref)
	}

	found := p.FindByName(ctx, ref)
	if !found.OK() {
		return core.Convert[*core.Playlist, string](found)
	}
	return core.Success(http.StatusOK, found.Data.ID)
}

// Create creates a private or public playlist. Empty names and names already
// in the user's listing are rejected before the create call is made.
func (p *Playlists) Create(ctx context.Context, name string, public bool, description string) core.Response[*core.Playlist] {
	if strings.TrimSpace(name) == "" {
		return invalid[*core.Playlist](cerrors.ErrEmptyPlaylistName)
	}
	if resp, ok := unconfigured[*core.Playlist](p.client); ok {
		return resp
	}

	all := p.all(ctx)
	if !all.OK() {
		return core.Convert[[]core.Playlist, *core.Playlist](all)
	}
	for _, existing := range all.Data {
		if existing.Name == name {
			return invalid[*core.Playlist](cerrors.PlaylistExists(name))
		}
	}

	userID := p.profiles.UserID(ctx)
	if !userID.OK() {
		return core.Convert[string, *core.Playlist](userID)
	}

	decoded := client.Decode[*client.Playlist](p.client.CreatePlaylist(ctx, userID.Data, client.CreatePlaylistRequest{
		Name:        name,
		Public:      public,
		Description: description,
	}))
	if !decoded.OK() {
		return core.Convert[*client.Playlist, *core.Playlist](decoded)
	}

	p.Invalidate()
	return core.Success(decoded.Status, ConvertPlaylist(decoded.Data))
}

// Delete removes (unfollows) a playlist.
func (p *Playlists) Delete(ctx context.Context, playlistID string) core.Response[struct{}] {
	playlistID = PlaylistID(playlistID)
	if playlistID == "" {
		return invalid[struct{}](cerrors.ErrPlaylistNotFound)
	}
	if resp, ok := unconfigured[struct{}](p.client); ok {
		return resp
	}

	resp := p.client.UnfollowPlaylist(ctx, playlistID)
	if resp.OK() {
		p.Invalidate()
	}
	return carry[struct{}](resp)
}

// Follow adds a playlist to the user's library.
func (p *Playlists) Follow(ctx context.Context, playlistID string, public bool) core.Response[struct{}] {
	playlistID = PlaylistID(playlistID)
	if playlistID == "" {
		return invalid[struct{}](cerrors.ErrPlaylistNotFound)
	}
	if resp, ok := unconfigured[struct{}](p.client); ok {
		return resp
	}

	resp := p.client.FollowPlaylist(ctx, playlistID, public)
	if resp.OK() {
		p.Invalidate()
	}
	return carry[struct{}](resp)
}

// Tracks lists the tracks of a playlist.
func (p *Playlists) Tracks(ctx context.Context, playlistID string, opts ListOptions) core.Response[[]core.PlaylistItem] {
	playlistID = PlaylistID(playlistID)
	if playlistID == "" {
		return invalid[[]core.PlaylistItem](cerrors.ErrPlaylistNotFound)
	}
	if resp, ok := unconfigured[[]core.PlaylistItem](p.client); ok {
		return resp
	}

	params, maxItems := opts.normalize(maxItemsPage)
	first := p.client.GetPlaylistTracks(ctx, playlistID, params)
	return collect(ctx, p.client, first, "", buildPlaylistItem, opts.All, maxItems)
}

// AddTracks appends tracks to a playlist, or inserts them at position. Ids
// are sent in chunks of 100; the snapshot id of the last chunk is returned.
func (p *Playlists) AddTracks(ctx context.Context, playlistID string, trackIDs []string, position *int) core.Response[string] {
	uris := cleanIDs(trackIDs, TrackURI)
	if len(uris) == 0 {
		return invalid[string](cerrors.ErrMissingTrackIDs)
	}
	playlistID = PlaylistID(playlistID)
	if playlistID == "" {
		return invalid[string](cerrors.ErrPlaylistNotFound)
	}
	if resp, ok := unconfigured[string](p.client); ok {
		return resp
	}

	var last core.Response[string]
	for i, batch := range chunk(uris, playlistChunk) {
		var pos *int
		if position != nil {
			at := *position + i*playlistChunk
			pos = &at
		}
		last = snapshot(p.client.AddPlaylistTracks(ctx, playlistID, batch, pos))
		if !last.OK() {
			return last
		}
	}

	p.Invalidate()
	return last
}

// ReplaceTracks overwrites a playlist with up to 100 tracks. An empty list
// clears the playlist.
func (p *Playlists) ReplaceTracks(ctx context.Context, playlistID string, trackIDs []string) core.Response[string] {
	uris := cleanIDs(trackIDs, TrackURI)
	if len(uris) > playlistChunk {
		return invalid[string](fmt.Errorf("%w: at most %d tracks can be set at once", cerrors.ErrTooManyIDs, playlistChunk))
	}
	playlistID = PlaylistID(playlistID)
	if playlistID == "" {
		return invalid[string](cerrors.ErrPlaylistNotFound)
	}
	if resp, ok := unconfigured[string](p.client); ok {
		return resp
	}

	resp := snapshot(p.client.ReplacePlaylistTracks(ctx, playlistID, uris))
	if resp.OK() {
		p.Invalidate()
	}
	return resp
}

// RemoveTracks removes every occurrence of the given tracks from a playlist.
func (p *Playlists) RemoveTracks(ctx context.Context, playlistID string, trackIDs []string) core.Response[string] {
	uris := cleanIDs(trackIDs, TrackURI)
	if len(uris) == 0 {
		return invalid[string](cerrors.ErrMissingTrackIDs)
	}
	playlistID = PlaylistID(playlistID)
	if playlistID == "" {
		return invalid[string](cerrors.ErrPlaylistNotFound)
	}
	if resp, ok := unconfigured[string](p.client); ok {
		return resp
	}

	var last core.Response[string]
	for _, batch := range chunk(uris, playlistChunk) {
		last = snapshot(p.client.RemovePlaylistTracks(ctx, playlistID, batch))
		if !last.OK() {
			return last
		}
	}

	p.Invalidate()
	return last
}

// Invalidate drops the cached playlist listing.
func (p *Playlists) Invalidate() {
	p.cache.Delete(KeyPlaylists)
}

func snapshot(r client.Response) core.Response[string] {
	decoded := client.Decode[client.SnapshotResponse](r)
	if !decoded.OK() {
		return core.Convert[client.SnapshotResponse, string](decoded)
	}
	return core.Success(decoded.Status, decoded.Data.SnapshotID)
}

// window returns items[offset:offset+n], or items[offset:] when n is 0.
func window[T any](items []T, offset, n int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if n > 0 && n < len(items) {
		items = items[:n]
	}
	return items
}

// looksLikeID reports whether s has the shape of a base62 Spotify id.
func looksLikeID(s string) bool {
	if len(s) != 22 {
		return false
	}
	for _, r := range s {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			return false
		}
	}
	return true
}
