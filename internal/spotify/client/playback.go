package client

import (
	"context"
	"strconv"
)

// PlayOptions configures a play request.
type PlayOptions struct {
	ContextURI string      `json:"context_uri,omitempty"`
	URIs       []string    `json:"uris,omitempty"`
	Offset     *PlayOffset `json:"offset,omitempty"`
	PositionMS int         `json:"position_ms,omitempty"`
}

// PlayOffset specifies where to start playback in a context.
type PlayOffset struct {
	Position int    `json:"position,omitempty"` // Track index
	URI      string `json:"uri,omitempty"`      // Track URI
}

func deviceParams(deviceID string) map[string]string {
	params := make(map[string]string)
	if deviceID != "" {
		params["device_id"] = deviceID
	}
	return params
}

// Play starts or resumes playback.
// If opts is nil, resumes current playback.
// If deviceID is empty, uses the currently active device.
func (c *Client) Play(ctx context.Context, deviceID string, opts *PlayOptions) Response {
	path := BuildURL("/me/player/play", deviceParams(deviceID))
	if opts == nil {
		return c.Put(ctx, path, nil)
	}
	return c.Put(ctx, path, opts)
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context, deviceID string) Response {
	return c.Put(ctx, BuildURL("/me/player/pause", deviceParams(deviceID)), nil)
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context, deviceID string) Response {
	return c.Post(ctx, BuildURL("/me/player/next", deviceParams(deviceID)), nil)
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context, deviceID string) Response {
	return c.Post(ctx, BuildURL("/me/player/previous", deviceParams(deviceID)), nil)
}

// Seek seeks to the given position in the current track.
func (c *Client) Seek(ctx context.Context, positionMs int, deviceID string) Response {
	params := deviceParams(deviceID)
	params["position_ms"] = strconv.Itoa(positionMs)
	return c.Put(ctx, BuildURL("/me/player/seek", params), nil)
}

// SetVolume sets the playback volume (0-100).
func (c *Client) SetVolume(ctx context.Context, percent int, deviceID string) Response {
	params := deviceParams(deviceID)
	params["volume_percent"] = strconv.Itoa(percent)
	return c.Put(ctx, BuildURL("/me/player/volume", params), nil)
}

// SetRepeat sets the repeat mode (off, track, context).
func (c *Client) SetRepeat(ctx context.Context, state string, deviceID string) Response {
	params := deviceParams(deviceID)
	params["state"] = state
	return c.Put(ctx, BuildURL("/me/player/repeat", params), nil)
}

// SetShuffle toggles shuffle.
func (c *Client) SetShuffle(ctx context.Context, state bool, deviceID string) Response {
	params := deviceParams(deviceID)
	params["state"] = strconv.FormatBool(state)
	return c.Put(ctx, BuildURL("/me/player/shuffle", params), nil)
}

// TransferPlayback transfers playback to a different device.
func (c *Client) TransferPlayback(ctx context.Context, deviceID string, play bool) Response {
	body := map[string]any{
		"device_ids": []string{deviceID},
		"play":       play,
	}
	return c.Put(ctx, "/me/player", body)
}
