// Package cody unifies control of a local desktop media player and the
// Spotify Web API behind one facade.
//
// Every Spotify call returns a [Response] envelope. A call answered with 401
// refreshes the access token once and is retried once; profile, playlist
// and device listings are cached for a short time.
//
// Outside this module, construct the facade with New(nil, ...) and the
// exported options (WithAPIBaseURL, WithTokenURL, WithCacheTTL,
// WithDesktopPlayer), then supply tokens with SetCredentials.
package cody

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/cody/internal/cache"
	"github.com/tessro/cody/internal/config"
	"github.com/tessro/cody/internal/core"
	"github.com/tessro/cody/internal/desktop"
	"github.com/tessro/cody/internal/logging"
	"github.com/tessro/cody/internal/spotify/auth"
	"github.com/tessro/cody/internal/spotify/client"
	"github.com/tessro/cody/internal/spotify/library"
	"github.com/tessro/cody/internal/spotify/player"
)

// Shared value types.
type (
	Response[T any] = core.Response[T]
	Track           = core.Track
	PlaylistItem    = core.PlaylistItem
	Playlist        = core.Playlist
	Device          = core.Device
	UserProfile     = core.UserProfile
	AudioFeatures   = core.AudioFeatures
	PlaybackState   = core.PlaybackState
	Credentials     = auth.Update
	ListOptions     = library.ListOptions
)

// Cody is the facade over the Spotify services and the desktop player.
// Construct it with New and release it with Close.
type Cody struct {
	creds     *auth.Credentials
	refresher *auth.Refresher
	cache     *cache.Cache
	client    *client.Client
	ctrl      *desktop.Controller
	logger    *log.Logger
	cancel    context.CancelFunc

	Profiles  *library.Profiles
	Playlists *library.Playlists
	Tracks    *library.Tracks
	Player    *player.Player
	Desktop   *desktop.Player
}

type options struct {
	httpClient *http.Client
	logger     *log.Logger
	desktop    []desktop.Option
	cache      []cache.Option
	configure  []func(*config.Config)
}

// Option configures New.
type Option func(*options)

// WithHTTPClient sets the HTTP client for API and token calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAPIBaseURL sets the Spotify Web API base URL.
func WithAPIBaseURL(url string) Option {
	return func(o *options) {
		o.configure = append(o.configure, func(c *config.Config) { c.Spotify.APIBaseURL = url })
	}
}

// WithTokenURL sets the token endpoint used to refresh access tokens.
func WithTokenURL(url string) Option {
	return func(o *options) {
		o.configure = append(o.configure, func(c *config.Config) { c.Spotify.TokenURL = url })
	}
}

// WithCacheTTL sets how long the profile, the playlist listing and the
// device list are cached, rounded up to whole seconds. Zero keeps the default.
func WithCacheTTL(profile, playlists, devices time.Duration) Option {
	return func(o *options) {
		o.configure = append(o.configure, func(c *config.Config) {
			if profile > 0 {
				c.Cache.ProfileTTL = wholeSeconds(profile)
			}
			if playlists > 0 {
				c.Cache.PlaylistsTTL = wholeSeconds(playlists)
			}
			if devices > 0 {
				c.Cache.DevicesTTL = wholeSeconds(devices)
			}
		})
	}
}

// WithDesktopPlayer names the desktop player application and its process.
func WithDesktopPlayer(name, process string) Option {
	return func(o *options) {
		o.configure = append(o.configure, func(c *config.Config) {
			c.Desktop.Player = name
			c.Desktop.Process = process
		})
	}
}

func wholeSeconds(d time.Duration) int {
	return int((d + time.Second - 1) / time.Second)
}

// WithDesktopOptions configures the desktop controller.
func WithDesktopOptions(opts ...desktop.Option) Option {
	return func(o *options) { o.desktop = append(o.desktop, opts...) }
}

// WithCacheOptions configures the response cache.
func WithCacheOptions(opts ...cache.Option) Option {
	return func(o *options) { o.cache = append(o.cache, opts...) }
}

// New wires the services described by cfg and starts the cache sweeper.
// A nil cfg uses the defaults; callers outside this module pass nil and
// adjust it with options. cfg itself is not modified.
func New(cfg *config.Config, opts ...Option) *Cody {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if cfg == nil {
		cfg = config.Default()
	} else {
		cp := *cfg
		cfg = &cp
	}
	for _, fn := range o.configure {
		fn(cfg)
	}
	cfg.ApplyDefaults()
	if o.logger == nil {
		o.logger = logging.Discard()
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{Timeout: cfg.HTTP.RequestTimeout()}
	}

	c := &Cody{logger: o.logger}

	sp := cfg.Spotify
	c.creds = auth.NewCredentials(auth.Update{
		AccessToken:  optional(sp.AccessToken),
		RefreshToken: optional(sp.RefreshToken),
		ClientID:     optional(sp.ClientID),
		ClientSecret: optional(sp.ClientSecret),
	})
	c.refresher = auth.NewRefresher(sp.TokenURL, o.httpClient, o.logger)
	c.client = client.New(c.creds,
		client.WithHTTPClient(o.httpClient),
		client.WithBaseURL(sp.APIBaseURL),
		client.WithRefresher(c.refresher),
		client.WithRateLimit(cfg.HTTP.RateLimit),
		client.WithLogger(o.logger),
	)

	c.cache = cache.New(append([]cache.Option{cache.WithSweepInterval(cfg.Cache.Sweep())}, o.cache...)...)
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.cache.Start(ctx)

	c.Profiles = library.NewProfiles(c.client, c.cache, cfg.Cache.Profile())
	c.Playlists = library.NewPlaylists(c.client, c.cache, c.Profiles, cfg.Cache.Playlists())
	c.Tracks = library.NewTracks(c.client)
	c.Player = player.New(c.client, c.cache, cfg.Cache.Devices())

	c.ctrl = desktop.New(append([]desktop.Option{desktop.WithLogger(o.logger)}, o.desktop...)...)
	c.Desktop = desktop.NewPlayer(c.ctrl, cfg.Desktop.Player, cfg.Desktop.Process)

	return c
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// SetCredentials updates any subset of the Spotify credentials. Cached
// responses belong to the previous account and are dropped.
func (c *Cody) SetCredentials(u Credentials) {
	c.creds.Set(u)
	c.cache.Clear()
}

// AccessToken returns the current access token.
func (c *Cody) AccessToken() string {
	return c.creds.AccessToken()
}

// Refresh obtains a new access token with the stored refresh token.
func (c *Cody) Refresh(ctx context.Context) (*auth.Token, error) {
	return c.refresher.Refresh(ctx, c.creds)
}

// Client returns the underlying API client for endpoints without a service.
func (c *Cody) Client() *client.Client {
	return c.client
}

// IsProcessRunning reports whether a process with the given name exists.
func (c *Cody) IsProcessRunning(ctx context.Context, name string) (bool, error) {
	return c.ctrl.IsProcessRunning(ctx, name)
}

// KillProcess terminates every process with the given name.
func (c *Cody) KillProcess(ctx context.Context, name string) error {
	return c.ctrl.KillProcess(ctx, name)
}

// RunPlayerCommand runs a scripting command against a desktop player.
// Hosts without a scripting bridge answer 501.
func (c *Cody) RunPlayerCommand(ctx context.Context, playerName, command string, args ...string) Response[string] {
	return c.ctrl.Script(ctx, playerName, command, args...)
}

// Capabilities reports what the host supports for desktop control.
func (c *Cody) Capabilities() desktop.Capabilities {
	return c.ctrl.Resolve()
}

// Close stops the cache sweeper.
func (c *Cody) Close() {
	c.cache.Stop()
	c.cancel()
}
