package config

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			RedirectURI: "http://127.0.0.1:8888/callback",
			APIBaseURL:  "https://api.spotify.com/v1",
			TokenURL:    "https://accounts.spotify.com/api/token",
		},
		Cache: CacheConfig{
			SweepInterval: 60,
			ProfileTTL:    600,
			PlaylistsTTL:  300,
			DevicesTTL:    30,
		},
		HTTP: HTTPConfig{
			Timeout: 30,
		},
		Desktop: DesktopConfig{
			Player: "Spotify",
		},
		Defaults: DefaultsConfig{
			Volume: 50,
			Repeat: "off",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	d := Default()

	// Spotify
	if c.Spotify.RedirectURI == "" {
		c.Spotify.RedirectURI = d.Spotify.RedirectURI
	}
	if c.Spotify.APIBaseURL == "" {
		c.Spotify.APIBaseURL = d.Spotify.APIBaseURL
	}
	if c.Spotify.TokenURL == "" {
		c.Spotify.TokenURL = d.Spotify.TokenURL
	}

	// Cache
	if c.Cache.SweepInterval == 0 {
		c.Cache.SweepInterval = d.Cache.SweepInterval
	}
	if c.Cache.ProfileTTL == 0 {
		c.Cache.ProfileTTL = d.Cache.ProfileTTL
	}
	if c.Cache.PlaylistsTTL == 0 {
		c.Cache.PlaylistsTTL = d.Cache.PlaylistsTTL
	}
	if c.Cache.DevicesTTL == 0 {
		c.Cache.DevicesTTL = d.Cache.DevicesTTL
	}

	// HTTP
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = d.HTTP.Timeout
	}

	// Desktop
	if c.Desktop.Player == "" {
		c.Desktop.Player = d.Desktop.Player
	}
	if c.Desktop.Process == "" {
		c.Desktop.Process = c.Desktop.Player
	}

	// Defaults
	if c.Defaults.Volume == 0 {
		c.Defaults.Volume = d.Defaults.Volume
	}
	if c.Defaults.Repeat == "" {
		c.Defaults.Repeat = d.Defaults.Repeat
	}

	// Log
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
}
