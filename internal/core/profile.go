package core

// UserProfile is the authenticated Spotify account.
type UserProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email,omitempty"`
	Country     string `json:"country,omitempty"`
	Product     string `json:"product,omitempty"`
	Followers   int    `json:"followers"`
	ImageURL    string `json:"image_url,omitempty"`
	URI         string `json:"uri"`
}

// IsPremium reports whether the account can use playback control.
func (p *UserProfile) IsPremium() bool {
	return p != nil && p.Product == "premium"
}

// AudioFeatures holds the audio analysis summary for one track.
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
