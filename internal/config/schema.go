package config

import "time"

// Config is the root configuration structure.
type Config struct {
	Spotify  SpotifyConfig  `toml:"spotify" json:"spotify"`
	Cache    CacheConfig    `toml:"cache" json:"cache"`
	HTTP     HTTPConfig     `toml:"http" json:"http"`
	Desktop  DesktopConfig  `toml:"desktop" json:"desktop"`
	Defaults DefaultsConfig `toml:"defaults" json:"defaults"`
	Log      LogConfig      `toml:"log" json:"log"`
}

// SpotifyConfig holds Spotify API settings.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" json:"client_id"`
	ClientSecret string `toml:"client_secret" json:"client_secret,omitempty"`
	RefreshToken string `toml:"refresh_token" json:"refresh_token,omitempty"`
	RedirectURI  string `toml:"redirect_uri" json:"redirect_uri"`
	APIBaseURL   string `toml:"api_base_url" json:"api_base_url"`
	TokenURL     string `toml:"token_url" json:"token_url"`

	// AccessToken only ever comes from the environment.
	AccessToken string `toml:"-" json:"-"`
}

// CacheConfig holds cache lifetimes, in seconds.
type CacheConfig struct {
	SweepInterval int `toml:"sweep_interval" json:"sweep_interval"`
	ProfileTTL    int `toml:"profile_ttl" json:"profile_ttl"`
	PlaylistsTTL  int `toml:"playlists_ttl" json:"playlists_ttl"`
	DevicesTTL    int `toml:"devices_ttl" json:"devices_ttl"`
}

// HTTPConfig holds API transport settings.
type HTTPConfig struct {
	// Timeout is the per-request timeout in seconds.
	Timeout int `toml:"timeout" json:"timeout"`
	// RateLimit caps requests per second; 0 disables limiting.
	RateLimit float64 `toml:"rate_limit" json:"rate_limit"`
}

// DesktopConfig selects the local desktop player.
type DesktopConfig struct {
	Player  string `toml:"player" json:"player"`
	Process string `toml:"process" json:"process"`
}

// DefaultsConfig holds default playback settings.
type DefaultsConfig struct {
	Device string `toml:"device" json:"device"`
	Volume int    `toml:"volume" json:"volume"`
	Repeat string `toml:"repeat" json:"repeat"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	File  string `toml:"file" json:"file"`
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Sweep returns the sweeper interval.
func (c CacheConfig) Sweep() time.Duration { return seconds(c.SweepInterval) }

// Profile returns the profile lifetime.
func (c CacheConfig) Profile() time.Duration { return seconds(c.ProfileTTL) }

// Playlists returns the playlist listing lifetime.
func (c CacheConfig) Playlists() time.Duration { return seconds(c.PlaylistsTTL) }

// Devices returns the device list lifetime.
func (c CacheConfig) Devices() time.Duration { return seconds(c.DevicesTTL) }

// RequestTimeout returns the HTTP client timeout.
func (c HTTPConfig) RequestTimeout() time.Duration { return seconds(c.Timeout) }
