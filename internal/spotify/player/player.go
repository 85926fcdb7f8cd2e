// Package player controls Spotify Connect playback and reports player state.
package player

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/tessro/cody/internal/cache"
	"github.com/tessro/cody/internal/core"
	cerrors "github.com/tessro/cody/internal/errors"
	"github.com/tessro/cody/internal/spotify/client"
	"github.com/tessro/cody/internal/spotify/library"
)

// KeyDevices is the cache key of the device list.
const KeyDevices = "devices"

// DefaultDevicesTTL is how long the device list is cached.
const DefaultDevicesTTL = 30 * time.Second

// Options targets a playback command.
type Options struct {
	// DeviceID selects the device; empty means the active device.
	DeviceID string
}

// Player serves Spotify Connect state and playback commands.
type Player struct {
	client *client.Client
	cache  *cache.Cache
	ttl    time.Duration
}

// New creates a new Spotify player. A zero ttl uses DefaultDevicesTTL.
func New(c *client.Client, cc *cache.Cache, ttl time.Duration) *Player {
	if ttl <= 0 {
		ttl = DefaultDevicesTTL
	}
	return &Player{client: c, cache: cc, ttl: ttl}
}

// State returns the full playback state. When nothing is playing Spotify
// answers 204 and Data is nil.
func (p *Player) State(ctx context.Context) core.Response[*core.PlaybackState] {
	if !p.client.Configured() {
		return client.NotConfigured[*core.PlaybackState]()
	}
	return convertState(client.Decode[*client.PlaybackState](p.client.GetPlaybackState(ctx)))
}

// CurrentlyPlaying returns the item being played, without device details.
func (p *Player) CurrentlyPlaying(ctx context.Context) core.Response[*core.PlaybackState] {
	if !p.client.Configured() {
		return client.NotConfigured[*core.PlaybackState]()
	}
	return convertState(client.Decode[*client.PlaybackState](p.client.GetCurrentlyPlaying(ctx)))
}

func convertState(r core.Response[*client.PlaybackState]) core.Response[*core.PlaybackState] {
	if !r.OK() {
		return core.Convert[*client.PlaybackState, *core.PlaybackState](r)
	}
	return core.Success(r.Status, ConvertState(r.Data))
}

// Devices lists the available Connect devices, from cache when fresh.
func (p *Player) Devices(ctx context.Context) core.Response[[]core.Device] {
	if devices, ok := cache.Get[[]core.Device](p.cache, KeyDevices); ok {
		return core.Success(http.StatusOK, slices.Clone(devices))
	}
	if !p.client.Configured() {
		return client.NotConfigured[[]core.Device]()
	}

	decoded := client.Decode[client.DevicesResponse](p.client.GetDevices(ctx))
	if !decoded.OK() {
		return core.Convert[client.DevicesResponse, []core.Device](decoded)
	}

	devices := make([]core.Device, 0, len(decoded.Data.Devices))
	for i := range decoded.Data.Devices {
		devices = append(devices, *ConvertDevice(&decoded.Data.Devices[i]))
	}
	p.cache.Set(KeyDevices, slices.Clone(devices), p.ttl)
	return core.Success(decoded.Status, devices)
}

// FindDevice resolves a device by id or (case-insensitive) name.
func (p *Player) FindDevice(ctx context.Context, ref string) core.Response[*core.Device] {
	devices := p.Devices(ctx)
	if !devices.OK() {
		return core.Convert[[]core.Device, *core.Device](devices)
	}
	for i := range devices.Data {
		if devices.Data[i].ID == ref {
			return core.Success(http.StatusOK, &devices.Data[i])
		}
	}
	for i := range devices.Data {
		if strings.EqualFold(devices.Data[i].Name, ref) {
			return core.Success(http.StatusOK, &devices.Data[i])
		}
	}
	return core.Failure[*core.Device](http.StatusNotFound, fmt.Errorf("%w: %q", cerrors.ErrDeviceNotFound, ref))
}

// Play resumes playback. Resuming what is already playing is not an error.
func (p *Player) Play(ctx context.Context, opts Options) core.Response[struct{}] {
	resp := p.command(func() client.Response { return p.client.Play(ctx, opts.DeviceID, nil) })
	if client.IsAlreadyPlayingError(resp.Error) {
		return core.Success(http.StatusNoContent, struct{}{})
	}
	return resp
}

// PlayURI starts playback of a track, or of an album, artist or playlist context.
func (p *Player) PlayURI(ctx context.Context, uri string, opts Options) core.Response[struct{}] {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return core.Failure[struct{}](http.StatusInternalServerError, fmt.Errorf("a spotify URI is required"))
	}

	play := &client.PlayOptions{}
	if strings.HasPrefix(uri, "spotify:track:") || strings.Contains(uri, "spotify.com/") && strings.Contains(uri, "/track/") {
		play.URIs = []string{library.TrackURI(uri)}
	} else {
		play.ContextURI = uri
	}
	return p.command(func() client.Response { return p.client.Play(ctx, opts.DeviceID, play) })
}

// PlayContext starts a context at the given track index.
func (p *Player) PlayContext(ctx context.Context, contextURI string, offset int, opts Options) core.Response[struct{}] {
	return p.command(func() client.Response {
		return p.client.Play(ctx, opts.DeviceID, &client.PlayOptions{
			ContextURI: contextURI,
			Offset:     &client.PlayOffset{Position: offset},
		})
	})
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context, opts Options) core.Response[struct{}] {
	return p.command(func() client.Response { return p.client.Pause(ctx, opts.DeviceID) })
}

// Next skips to the next track.
func (p *Player) Next(ctx context.Context, opts Options) core.Response[struct{}] {
	return p.command(func() client.Response { return p.client.Next(ctx, opts.DeviceID) })
}

// Prev skips to the previous track.
func (p *Player) Prev(ctx context.Context, opts Options) core.Response[struct{}] {
	return p.command(func() client.Response { return p.client.Previous(ctx, opts.DeviceID) })
}

// Seek seeks to a position in the current track.
func (p *Player) Seek(ctx context.Context, position time.Duration, opts Options) core.Response[struct{}] {
	if position < 0 {
		return core.Failure[struct{}](http.StatusInternalServerError, fmt.Errorf("seek position must not be negative"))
	}
	return p.command(func() client.Response { return p.client.Seek(ctx, int(position.Milliseconds()), opts.DeviceID) })
}

// Volume sets the playback volume (0-100).
func (p *Player) Volume(ctx context.Context, percent int, opts Options) core.Response[struct{}] {
	if percent < 0 || percent > 100 {
		return core.Failure[struct{}](http.StatusInternalServerError, fmt.Errorf("volume must be between 0 and 100, got %d", percent))
	}
	return p.command(func() client.Response { return p.client.SetVolume(ctx, percent, opts.DeviceID) })
}

// Shuffle toggles shuffle.
func (p *Player) Shuffle(ctx context.Context, on bool, opts Options) core.Response[struct{}] {
	return p.command(func() client.Response { return p.client.SetShuffle(ctx, on, opts.DeviceID) })
}

// Repeat sets the repeat mode: off, track or context.
func (p *Player) Repeat(ctx context.Context, mode string, opts Options) core.Response[struct{}] {
	switch mode {
	case "off", "track", "context":
	default:
		return core.Failure[struct{}](http.StatusInternalServerError, fmt.Errorf("repeat mode must be off, track or context, got %q", mode))
	}
	return p.command(func() client.Response { return p.client.SetRepeat(ctx, mode, opts.DeviceID) })
}

// Transfer moves playback to deviceID and optionally starts it.
func (p *Player) Transfer(ctx context.Context, deviceID string, play bool) core.Response[struct{}] {
	if deviceID == "" {
		return core.Failure[struct{}](http.StatusInternalServerError, cerrors.ErrDeviceNotFound)
	}
	resp := p.command(func() client.Response { return p.client.TransferPlayback(ctx, deviceID, play) })
	if resp.OK() {
		p.InvalidateDevices()
	}
	return resp
}

// InvalidateDevices drops the cached device list.
func (p *Player) InvalidateDevices() {
	p.cache.Delete(KeyDevices)
}

func (p *Player) command(call func() client.Response) core.Response[struct{}] {
	if !p.client.Configured() {
		return client.NotConfigured[struct{}]()
	}
	resp := call()
	if !resp.OK() && client.IsNoActiveDeviceError(resp.Error) {
		resp.Error = fmt.Errorf("%w: %w", cerrors.ErrNoActiveDevice, resp.Error)
	}
	if !resp.OK() {
		return core.Convert[json.RawMessage, struct{}](resp)
	}
	return core.Success(resp.Status, struct{}{})
}

// ConvertState normalizes a wire playback state. A nil state stays nil.
func ConvertState(s *client.PlaybackState) *core.PlaybackState {
	if s == nil {
		return nil
	}

	state := &core.PlaybackState{
		IsPlaying:    s.IsPlaying,
		Progress:     time.Duration(s.ProgressMS) * time.Millisecond,
		ShuffleState: s.ShuffleState,
		RepeatState:  s.RepeatState,
		Track:        library.ConvertTrack(s.Item),
	}
	if s.Context != nil {
		state.ContextURI = s.Context.URI
	}
	if s.Device != nil && s.Device.ID != "" {
		state.Device = ConvertDevice(s.Device)
		state.Volume = state.Device.VolumePercent
	}
	return state
}

// ConvertDevice converts a Spotify device to a core device.
func ConvertDevice(d *client.Device) *core.Device {
	if d == nil {
		return nil
	}

	deviceType := core.DeviceTypeUnknown
	switch d.Type {
	case "Computer":
		deviceType = core.DeviceTypeComputer
	case "Smartphone", "Tablet":
		deviceType = core.DeviceTypePhone
	case "Speaker", "CastAudio", "AVR", "Automobile":
		deviceType = core.DeviceTypeSpeaker
	case "TV", "CastVideo", "STB", "GameConsole":
		deviceType = core.DeviceTypeTV
	}

	device := &core.Device{
		ID:             d.ID,
		Name:           d.Name,
		Type:           deviceType,
		Platform:       core.PlatformSpotify,
		IsActive:       d.IsActive,
		IsRestricted:   d.IsRestricted,
		SupportsVolume: d.SupportsVolume,
	}
	if d.VolumePercent != nil {
		device.VolumePercent = *d.VolumePercent
	}
	return device
}

// Remote adapts the player to core.Player, targeting the device in opts.
func (p *Player) Remote(opts Options) core.Player {
	return &remote{player: p, opts: opts}
}

type remote struct {
	player *Player
	opts   Options
}

var _ core.Player = (*remote)(nil)

func (r *remote) Play(ctx context.Context) error { return r.player.Play(ctx, r.opts).Err() }
func (r *remote) Pause(ctx context.Context) error { return r.player.Pause(ctx, r.opts).Err() }
func (r *remote) Next(ctx context.Context) error { return r.player.Next(ctx, r.opts).Err() }
func (r *remote) Prev(ctx context.Context) error { return r.player.Prev(ctx, r.opts).Err() }

func (r *remote) Seek(ctx context.Context, positionMs int) error {
	return r.player.Seek(ctx, time.Duration(positionMs)*time.Millisecond, r.opts).Err()
}

func (r *remote) Volume(ctx context.Context, percent int) error {
	return r.player.Volume(ctx, percent, r.opts).Err()
}

func (r *remote) GetState(ctx context.Context) (*core.PlaybackState, error) {
	resp := r.player.State(ctx)
	return resp.Data, resp.Err()
}
