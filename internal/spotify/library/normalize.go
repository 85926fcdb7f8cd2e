package library

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tessro/cody/internal/core"
	"github.com/tessro/cody/internal/spotify/client"
)

// ConvertTrack normalizes a wire track. It returns nil for nil input.
func ConvertTrack(t *client.Track) *core.Track {
	if t == nil {
		return nil
	}

	artists := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		artists[i] = a.Name
	}

	return &core.Track{
		ID:         t.ID,
		URI:        t.URI,
		Title:      t.Name,
		Artist:     strings.Join(artists, ", "),
		Artists:    artists,
		Album:      t.Album.Name,
		ImageURL:   firstImage(t.Album.Images),
		Duration:   time.Duration(t.DurationMS) * time.Millisecond,
		DurationMS: t.DurationMS,
		Popularity: t.Popularity,
		Explicit:   t.Explicit,
		IsLocal:    t.IsLocal,
		Source:     core.SourceSpotify,
	}
}

// ConvertPlaylist normalizes a wire playlist.
func ConvertPlaylist(p *client.Playlist) *core.Playlist {
	if p == nil {
		return nil
	}

	owner := p.Owner.DisplayName
	if owner == "" {
		owner = p.Owner.ID
	}

	return &core.Playlist{
		ID:            p.ID,
		URI:           p.URI,
		Name:          p.Name,
		Description:   p.Description,
		Owner:         owner,
		OwnerID:       p.Owner.ID,
		Public:        p.Public,
		Collaborative: p.Collaborative,
		TrackCount:    p.Tracks.Total,
		ImageURL:      firstImage(p.Images),
		SnapshotID:    p.SnapshotID,
	}
}

// ConvertUser normalizes a wire user profile.
func ConvertUser(u *client.User) *core.UserProfile {
	if u == nil {
		return nil
	}
	return &core.UserProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		Email:       u.Email,
		Country:     u.Country,
		Product:     u.Product,
		Followers:   u.Followers.Total,
		ImageURL:    firstImage(u.Images),
		URI:         u.URI,
	}
}

// ConvertAudioFeatures normalizes a wire audio-features entry.
func ConvertAudioFeatures(f *client.AudioFeatures) *core.AudioFeatures {
	if f == nil {
		return nil
	}
	return &core.AudioFeatures{
		ID:               f.ID,
		Danceability:     f.Danceability,
		Energy:           f.Energy,
		Key:              f.Key,
		Loudness:         f.Loudness,
		Mode:             f.Mode,
		Speechiness:      f.Speechiness,
		Acousticness:     f.Acousticness,
		Instrumentalness: f.Instrumentalness,
		Liveness:         f.Liveness,
		Valence:          f.Valence,
		Tempo:            f.Tempo,
		DurationMS:       f.DurationMS,
		TimeSignature:    f.TimeSignature,
	}
}

func firstImage(images []client.Image) string {
	if len(images) == 0 {
		return ""
	}
	return images[0].URL
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Item builders used with client.Collect. They skip entries that are null
// or carry no track.

func buildTrack(raw json.RawMessage) (core.Track, bool) {
	var t *client.Track
	if err := json.Unmarshal(raw, &t); err != nil || t == nil {
		return core.Track{}, false
	}
	return *ConvertTrack(t), true
}

func buildSavedTrack(raw json.RawMessage) (core.PlaylistItem, bool) {
	var s *client.SavedTrack
	if err := json.Unmarshal(raw, &s); err != nil || s == nil || s.Track == nil {
		return core.PlaylistItem{}, false
	}
	return core.PlaylistItem{
		Track:   *ConvertTrack(s.Track),
		AddedAt: parseTime(s.AddedAt),
	}, true
}

func buildPlaylistItem(raw json.RawMessage) (core.PlaylistItem, bool) {
	var p *client.PlaylistTrack
	if err := json.Unmarshal(raw, &p); err != nil || p == nil || p.Track == nil {
		return core.PlaylistItem{}, false
	}
	item := core.PlaylistItem{
		Track:   *ConvertTrack(p.Track),
		AddedAt: parseTime(p.AddedAt),
	}
	if p.IsLocal {
		item.Track.IsLocal = true
	}
	if p.AddedBy != nil {
		item.AddedBy = p.AddedBy.ID
	}
	return item, true
}

func buildPlaylist(raw json.RawMessage) (core.Playlist, bool) {
	var p *client.Playlist
	if err := json.Unmarshal(raw, &p); err != nil || p == nil {
		return core.Playlist{}, false
	}
	return *ConvertPlaylist(p), true
}
