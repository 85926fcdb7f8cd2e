package client

// User represents a Spotify user profile.
type User struct {
	ID           string       `json:"id"`
	DisplayName  string       `json:"display_name"`
	Email        string       `json:"email"`
	Country      string       `json:"country"`
	Product      string       `json:"product"`
	Type         string       `json:"type"`
	URI          string       `json:"uri"`
	Images       []Image      `json:"images"`
	Followers    Followers    `json:"followers"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Image represents an image resource.
type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// Followers represents follower information.
type Followers struct {
	Total int `json:"total"`
}

// ExternalURLs contains external URLs for a resource.
type ExternalURLs struct {
	Spotify string `json:"spotify"`
}

// Device represents a Spotify playback device.
type Device struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	IsActive         bool   `json:"is_active"`
	IsRestricted     bool   `json:"is_restricted"`
	IsPrivateSession bool   `json:"is_private_session"`
	VolumePercent    *int   `json:"volume_percent"` // Nullable
	SupportsVolume   bool   `json:"supports_volume"`
}

// DevicesResponse is the response from the devices endpoint.
type DevicesResponse struct {
	Devices []Device `json:"devices"`
}

// PlaybackState represents the current playback state. The currently-playing
// endpoint returns the same shape without the device.
type PlaybackState struct {
	Device               *Device  `json:"device"`
	ShuffleState         bool     `json:"shuffle_state"`
	RepeatState          string   `json:"repeat_state"` // off, track, context
	Timestamp            int64    `json:"timestamp"`
	ProgressMS           int      `json:"progress_ms"`
	IsPlaying            bool     `json:"is_playing"`
	Item                 *Track   `json:"item"`
	CurrentlyPlayingType string   `json:"currently_playing_type"` // track, episode, ad, unknown
	Context              *Context `json:"context"`
}

// Track represents a Spotify track.
type Track struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	URI          string       `json:"uri"`
	DurationMS   int          `json:"duration_ms"`
	Explicit     bool         `json:"explicit"`
	IsLocal      bool         `json:"is_local"`
	TrackNumber  int          `json:"track_number"`
	Popularity   int          `json:"popularity"`
	Artists      []Artist     `json:"artists"`
	Album        Album        `json:"album"`
	ExternalURLs ExternalURLs `json:"external_urls"`
}

// Artist represents a Spotify artist.
type Artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URI  string `json:"uri"`
}

// Album represents a Spotify album.
type Album struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	URI         string   `json:"uri"`
	AlbumType   string   `json:"album_type"`
	ReleaseDate string   `json:"release_date"`
	Images      []Image  `json:"images"`
	Artists     []Artist `json:"artists"`
}

// Context represents a playback context (album, artist, playlist).
type Context struct {
	Type string `json:"type"`
	URI  string `json:"uri"`
}

// SavedTrack is an item of the saved-tracks library.
type SavedTrack struct {
	AddedAt string `json:"added_at"`
	Track   *Track `json:"track"`
}

// PlaylistTrack is an item of a playlist's track listing.
type PlaylistTrack struct {
	AddedAt string `json:"added_at"`
	AddedBy *User  `json:"added_by"`
	IsLocal bool   `json:"is_local"`
	Track   *Track `json:"track"`
}

// Playlist represents a Spotify playlist.
type Playlist struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	URI           string  `json:"uri"`
	Description   string  `json:"description"`
	Public        bool    `json:"public"`
	Collaborative bool    `json:"collaborative"`
	SnapshotID    string  `json:"snapshot_id"`
	Images        []Image `json:"images"`
	Owner         User    `json:"owner"`
	Tracks        struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// CreatePlaylistRequest is the body of the create-playlist call.
type CreatePlaylistRequest struct {
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	Description string `json:"description,omitempty"`
}

// SnapshotResponse is returned by calls that modify a playlist.
type SnapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

// AudioFeatures is the audio-features payload of one track.
type AudioFeatures struct {
	ID               string  `json:"id"`
	Danceability     float64 `json:"danceability"`
	Energy           float64 `json:"energy"`
	Key              int     `json:"key"`
	Loudness         float64 `json:"loudness"`
	Mode             int     `json:"mode"`
	Speechiness      float64 `json:"speechiness"`
	Acousticness     float64 `json:"acousticness"`
	Instrumentalness float64 `json:"instrumentalness"`
	Liveness         float64 `json:"liveness"`
	Valence          float64 `json:"valence"`
	Tempo            float64 `json:"tempo"`
	DurationMS       int     `json:"duration_ms"`
	TimeSignature    int     `json:"time_signature"`
}

// AudioFeaturesResponse wraps the batch audio-features result. Unknown ids
// come back as null entries.
type AudioFeaturesResponse struct {
	AudioFeatures []*AudioFeatures `json:"audio_features"`
}

// RecommendationsResponse is the result of the recommendations endpoint.
type RecommendationsResponse struct {
	Tracks []Track `json:"tracks"`
}
