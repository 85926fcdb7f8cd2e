package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Spotify.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("spotify: %w", err))
	}
	if err := c.Cache.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	if err := c.HTTP.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}
	if err := c.Defaults.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}
	if err := c.Log.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("log: %w", err))
	}

	return errors.Join(errs...)
}

func validURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return fmt.Errorf("invalid %s: %q is not an http(s) URL", name, raw)
	}
	return nil
}

// Validate checks SpotifyConfig for errors.
func (c *SpotifyConfig) Validate() error {
	return errors.Join(
		validURL("redirect_uri", c.RedirectURI),
		validURL("api_base_url", c.APIBaseURL),
		validURL("token_url", c.TokenURL),
	)
}

// Validate checks CacheConfig for errors.
func (c *CacheConfig) Validate() error {
	fields := []struct {
		name  string
		value int
	}{
		{"sweep_interval", c.SweepInterval},
		{"profile_ttl", c.ProfileTTL},
		{"playlists_ttl", c.PlaylistsTTL},
		{"devices_ttl", c.DevicesTTL},
	}

	var errs []error
	for _, f := range fields {
		if f.value < 0 {
			errs = append(errs, fmt.Errorf("%s must be non-negative", f.name))
		}
	}
	return errors.Join(errs...)
}

// Validate checks HTTPConfig for errors.
func (c *HTTPConfig) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	if c.RateLimit < 0 {
		return errors.New("rate_limit must be non-negative")
	}
	return nil
}

// Validate checks DefaultsConfig for errors.
func (c *DefaultsConfig) Validate() error {
	if c.Volume < 0 || c.Volume > 100 {
		return errors.New("volume must be between 0 and 100")
	}
	switch c.Repeat {
	case "", "off", "track", "context":
		// valid
	default:
		return fmt.Errorf("invalid repeat mode: %s (must be off, track, or context)", c.Repeat)
	}
	return nil
}

// Validate checks LogConfig for errors.
func (c *LogConfig) Validate() error {
	switch c.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Level)
	}
	return nil
}
