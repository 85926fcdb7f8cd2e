package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	cerrors "github.com/tessro/cody/internal/errors"
)

// EnvFile is the dotenv file read from the working directory.
const EnvFile = ".env"

// Load reads configuration from standard locations with environment overrides.
// Search order: ~/.codyrc, $XDG_CONFIG_HOME/cody/config.toml, ~/.config/cody/config.toml
func Load() (*Config, error) {
	cfg := &Config{}

	// Try loading from file
	if path := findConfigFile(); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", cerrors.ErrInvalidConfig, path, err)
		}
	}

	return finish(cfg), nil
}

// LoadFrom reads configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", cerrors.ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("%w: %s: %w", cerrors.ErrInvalidConfig, path, err)
	}
	return finish(cfg), nil
}

func finish(cfg *Config) *Config {
	// Variables already set in the environment win over the .env file.
	_ = godotenv.Load(EnvFile)

	cfg.ApplyDefaults()
	applyEnvOverrides(cfg)
	return cfg
}

// Path returns the config file in use, or the default location for a new one.
func Path() string {
	if p := findConfigFile(); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".codyrc"
	}
	return filepath.Join(home, ".codyrc")
}

// Header is written at the top of every config file.
const Header = "# Cody Configuration\n# https://github.com/tessro/cody\n\n"

// Write encodes v as TOML to path, creating the directory if needed.
func Write(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.WriteString(Header); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	encoder := toml.NewEncoder(f)
	encoder.Indent = "  "
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// findConfigFile returns the first existing config file path.
func findConfigFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	paths := []string{
		filepath.Join(home, ".codyrc"),
	}

	// XDG_CONFIG_HOME or default
	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}
	paths = append(paths, filepath.Join(xdgConfig, "cody", "config.toml"))

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	// Spotify
	setString(&cfg.Spotify.ClientID, "CODY_SPOTIFY_CLIENT_ID")
	setString(&cfg.Spotify.ClientSecret, "CODY_SPOTIFY_CLIENT_SECRET")
	setString(&cfg.Spotify.RefreshToken, "CODY_SPOTIFY_REFRESH_TOKEN")
	setString(&cfg.Spotify.AccessToken, "CODY_SPOTIFY_ACCESS_TOKEN")
	setString(&cfg.Spotify.RedirectURI, "CODY_SPOTIFY_REDIRECT_URI")
	setString(&cfg.Spotify.APIBaseURL, "CODY_SPOTIFY_API_BASE_URL")
	setString(&cfg.Spotify.TokenURL, "CODY_SPOTIFY_TOKEN_URL")

	// Cache
	setInt(&cfg.Cache.SweepInterval, "CODY_CACHE_SWEEP_INTERVAL")
	setInt(&cfg.Cache.ProfileTTL, "CODY_CACHE_PROFILE_TTL")
	setInt(&cfg.Cache.PlaylistsTTL, "CODY_CACHE_PLAYLISTS_TTL")
	setInt(&cfg.Cache.DevicesTTL, "CODY_CACHE_DEVICES_TTL")

	// HTTP
	setInt(&cfg.HTTP.Timeout, "CODY_HTTP_TIMEOUT")
	if v := os.Getenv("CODY_HTTP_RATE_LIMIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HTTP.RateLimit = f
		}
	}

	// Desktop
	setString(&cfg.Desktop.Player, "CODY_DESKTOP_PLAYER")
	setString(&cfg.Desktop.Process, "CODY_DESKTOP_PROCESS")

	// Defaults
	setString(&cfg.Defaults.Device, "CODY_DEFAULT_DEVICE")

	// Log
	setString(&cfg.Log.Level, "CODY_LOG_LEVEL")
	setString(&cfg.Log.File, "CODY_LOG_FILE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}
