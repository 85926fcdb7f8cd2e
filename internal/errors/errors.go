package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrMissingCredentials = errors.New("Spotify credentials are not configured")
	ErrRefreshFailed      = errors.New("token refresh failed")
	ErrNoActiveDevice     = errors.New("no active device")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrPremiumRequired    = errors.New("spotify premium required")
	ErrRateLimited        = errors.New("rate limited")
	ErrNetworkError       = errors.New("network error")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")

	ErrMissingTrackIDs   = errors.New("no track ids given")
	ErrTooManyIDs        = errors.New("too many ids")
	ErrEmptyPlaylistName = errors.New("playlist name is required")
	ErrPlaylistExists    = errors.New("playlist already exists")
	ErrPlaylistNotFound  = errors.New("playlist not found")
	ErrEmptyQuery        = errors.New("search query is required")
	ErrInvalidSeeds      = errors.New("between 1 and 5 seeds are required")

	ErrUnsupported     = errors.New("not supported on this platform")
	ErrProcessNotFound = errors.New("process not found")
)

// CodyError wraps an error with a user-friendly suggestion.
type CodyError struct {
	Err        error
	Suggestion string
}

func (e *CodyError) Error() string {
	return e.Err.Error()
}

func (e *CodyError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &CodyError{
		Err:        err,
		Suggestion: suggestion,
	}
}

type playlistExistsError struct {
	name string
}

func (e *playlistExistsError) Error() string {
	return fmt.Sprintf("The playlist '%s' already exists", e.name)
}

func (e *playlistExistsError) Is(target error) bool {
	return target == ErrPlaylistExists
}

// PlaylistExists returns the error reported when creating a duplicate playlist.
func PlaylistExists(name string) error {
	return &playlistExistsError{name: name}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var codyErr *CodyError
	if errors.As(err, &codyErr) && codyErr.Suggestion != "" {
		return codyErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	// Authentication errors
	if errors.Is(err, ErrMissingCredentials) || strings.Contains(errStr, "credentials are not configured") {
		return "Set CODY_SPOTIFY_REFRESH_TOKEN or run 'cody auth login' to obtain one"
	}
	if errors.Is(err, ErrNotAuthenticated) || errors.Is(err, ErrRefreshFailed) ||
		strings.Contains(errStr, "invalid access token") || strings.Contains(errStr, "token expired") {
		return "Run 'cody auth login' to authenticate with Spotify"
	}

	// Device errors
	if errors.Is(err, ErrNoActiveDevice) || strings.Contains(errStr, "no active device") {
		return "Open Spotify on a device and start playing, or use --device to specify one"
	}
	if errors.Is(err, ErrDeviceNotFound) || strings.Contains(errStr, "device not found") {
		return "Run 'cody devices' to see available devices"
	}

	// Premium errors
	if errors.Is(err, ErrPremiumRequired) || strings.Contains(errStr, "premium required") ||
		strings.Contains(errStr, "restricted device") {
		return "This feature requires Spotify Premium"
	}

	// Library errors
	if errors.Is(err, ErrPlaylistExists) || strings.Contains(errStr, "already exists") {
		return "Pick another name, or run 'cody playlists list' to see existing playlists"
	}
	if errors.Is(err, ErrPlaylistNotFound) {
		return "Run 'cody playlists list' to see your playlists"
	}
	if errors.Is(err, ErrMissingTrackIDs) {
		return "Pass one or more track ids or spotify:track URIs"
	}

	// Desktop errors
	if errors.Is(err, ErrUnsupported) {
		return "Install playerctl (Linux) or use the Spotify commands instead"
	}

	// Rate limiting
	if errors.Is(err, ErrRateLimited) || strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") {
		return "Too many requests. Wait a moment and try again"
	}

	// Network errors
	if errors.Is(err, ErrNetworkError) || strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection refused") {
		return "Check your internet connection and try again"
	}

	// Config errors
	if errors.Is(err, ErrConfigNotFound) || errors.Is(err, ErrInvalidConfig) {
		return "Run 'cody config init' to set up your configuration"
	}

	// Server errors
	if strings.Contains(errStr, "server error") || strings.Contains(errStr, "bad gateway") {
		return "Spotify is having issues. Try again in a moment"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}
