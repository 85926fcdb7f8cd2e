package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestGetSuggestion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"explicit suggestion", WithSuggestion(errors.New("boom"), "do the thing"), "do the thing"},
		{"missing credentials", ErrMissingCredentials, "Set CODY_SPOTIFY_REFRESH_TOKEN or run 'cody auth login' to obtain one"},
		{"wrapped not authenticated", fmt.Errorf("me: %w", ErrNotAuthenticated), "Run 'cody auth login' to authenticate with Spotify"},
		{"api message", errors.New("The access token expired"), "Run 'cody auth login' to authenticate with Spotify"},
		{"duplicate playlist", PlaylistExists("cody-favs"), "Pick another name, or run 'cody playlists list' to see existing playlists"},
		{"no device", errors.New("Player command failed: No active device found"), "Open Spotify on a device and start playing, or use --device to specify one"},
		{"unsupported", fmt.Errorf("osascript: %w", ErrUnsupported), "Install playerctl (Linux) or use the Spotify commands instead"},
		{"rate limited", errors.New("API rate limit exceeded"), "Too many requests. Wait a moment and try again"},
		{"unknown", errors.New("something odd"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSuggestion(tt.err); got != tt.want {
				t.Errorf("GetSuggestion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlaylistExists(t *testing.T) {
	err := PlaylistExists("cody-favs")
	if !errors.Is(err, ErrPlaylistExists) {
		t.Error("expected error to wrap ErrPlaylistExists")
	}
	if err.Error() != "The playlist 'cody-favs' already exists" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestCodyErrorUnwrap(t *testing.T) {
	err := WithSuggestion(ErrDeviceNotFound, "look elsewhere")
	if !errors.Is(err, ErrDeviceNotFound) {
		t.Error("expected CodyError to unwrap to its cause")
	}
	if err.Error() != ErrDeviceNotFound.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestFormat(t *testing.T) {
	if got := Format(nil); got != "" {
		t.Errorf("Format(nil) = %q", got)
	}
	if got := Format(errors.New("plain")); got != "Error: plain" {
		t.Errorf("Format() = %q", got)
	}

	got := Format(ErrDeviceNotFound)
	want := "Error: device not found\n\nSuggestion: Run 'cody devices' to see available devices"
	if got != want {
		t.Errorf("Format() = %q, want %q", got, want)
	}
}
