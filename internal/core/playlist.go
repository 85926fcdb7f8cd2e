package core

import "time"

// Playlist represents a playlist in the user's library.
type Playlist struct {
	ID            string `json:"id"`
	URI           string `json:"uri"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	Owner         string `json:"owner"`
	OwnerID       string `json:"owner_id"`
	Public        bool   `json:"public"`
	Collaborative bool   `json:"collaborative"`
	TrackCount    int    `json:"track_count"`
	ImageURL      string `json:"image_url,omitempty"`
	SnapshotID    string `json:"snapshot_id,omitempty"`
}

// PlaylistItem is a track inside a playlist or the saved-tracks library,
// together with when and by whom it was added.
type PlaylistItem struct {
	Track   Track     `json:"track"`
	AddedAt time.Time `json:"added_at"`
	AddedBy string    `json:"added_by,omitempty"`
}
