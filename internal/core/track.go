package core

import "time"

// Source indicates the origin of a track.
type Source string

const (
	SourceSpotify Source = "spotify"
	SourceDesktop Source = "desktop"
)

// Track represents a playable audio track.
type Track struct {
	ID         string        `json:"id"`
	URI        string        `json:"uri"`
	Title      string        `json:"title"`
	Artist     string        `json:"artist"`
	Artists    []string      `json:"artists"`
	Album      string        `json:"album"`
	ImageURL   string        `json:"image_url,omitempty"`
	Duration   time.Duration `json:"duration"`
	DurationMS int           `json:"duration_ms"`
	Popularity int           `json:"popularity,omitempty"`
	Explicit   bool          `json:"explicit,omitempty"`
	IsLocal    bool          `json:"is_local,omitempty"`
	Source     Source        `json:"source"`
}

// DisplayName returns "Artist - Title", or just the title when the artist is unknown.
func (t *Track) DisplayName() string {
	if t == nil {
		return ""
	}
	if t.Artist == "" {
		return t.Title
	}
	return t.Artist + " - " + t.Title
}
