package desktop

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tessro/cody/internal/core"
	cerrors "github.com/tessro/cody/internal/errors"
)

// DefaultPlayer is the desktop application controlled when none is configured.
const DefaultPlayer = "Spotify"

// unknownArtist is reported when the reply carries only a title.
const unknownArtist = "Unknown Artist"

type action int

const (
	actionPlay action = iota
	actionPause
	actionNext
	actionPrev
	actionSeek
	actionVolume
	actionStatus
	actionPosition
	actionNowPlaying
)

// commands maps each action to the bridge-specific command for it.
var commands = map[string]map[action]string{
	ScripterOSA: {
		actionPlay:       "play",
		actionPause:      "pause",
		actionNext:       "next track",
		actionPrev:       "previous track",
		actionSeek:       "set player position to",
		actionVolume:     "set sound volume to",
		actionStatus:     "player state as string",
		actionPosition:   "player position as string",
		actionNowPlaying: `(artist of current track) & " - " & (name of current track)`,
	},
	ScripterPlayerctl: {
		actionPlay:       "play",
		actionPause:      "pause",
		actionNext:       "next",
		actionPrev:       "previous",
		actionSeek:       "position",
		actionVolume:     "volume",
		actionStatus:     "status",
		actionPosition:   "position",
		actionNowPlaying: "metadata",
	},
}

// Player drives one desktop application and implements core.Player.
type Player struct {
	ctrl    *Controller
	name    string
	process string
}

var _ core.Player = (*Player)(nil)

// NewPlayer returns a player for the named application. process is the OS
// process name and defaults to name.
func NewPlayer(ctrl *Controller, name, process string) *Player {
	if name == "" {
		name = DefaultPlayer
	}
	if process == "" {
		process = name
	}
	return &Player{ctrl: ctrl, name: name, process: process}
}

// Name returns the controlled application's name.
func (p *Player) Name() string {
	return p.name
}

// Running reports whether the application's process exists.
func (p *Player) Running(ctx context.Context) (bool, error) {
	return p.ctrl.IsProcessRunning(ctx, p.process)
}

// Quit terminates the application.
func (p *Player) Quit(ctx context.Context) error {
	return p.ctrl.KillProcess(ctx, p.process)
}

func (p *Player) do(ctx context.Context, a action, args ...string) (string, error) {
	scripter := p.ctrl.Resolve().Scripter
	command, ok := commands[scripter][a]
	if !ok {
		return "", fmt.Errorf("%w: player scripting", cerrors.ErrUnsupported)
	}
	if a == actionNowPlaying && scripter == ScripterPlayerctl {
		args = append(args, "--format", "{{artist}} - {{title}}")
	}
	return p.ctrl.RunPlayerCommand(ctx, p.name, command, args...)
}

// Play resumes playback.
func (p *Player) Play(ctx context.Context) error {
	_, err := p.do(ctx, actionPlay)
	return err
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	_, err := p.do(ctx, actionPause)
	return err
}

// Next skips to the next track.
func (p *Player) Next(ctx context.Context) error {
	_, err := p.do(ctx, actionNext)
	return err
}

// Prev skips to the previous track.
func (p *Player) Prev(ctx context.Context) error {
	_, err := p.do(ctx, actionPrev)
	return err
}

// Seek moves to positionMs in the current track.
func (p *Player) Seek(ctx context.Context, positionMs int) error {
	if positionMs < 0 {
		return fmt.Errorf("seek position must not be negative")
	}
	seconds := strconv.FormatFloat(float64(positionMs)/1000, 'f', -1, 64)
	_, err := p.do(ctx, actionSeek, seconds)
	return err
}

// Volume sets the player volume (0-100).
func (p *Player) Volume(ctx context.Context, percent int) error {
	if percent < 0 || percent > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", percent)
	}
	arg := strconv.Itoa(percent)
	if p.ctrl.Resolve().Scripter == ScripterPlayerctl {
		arg = strconv.FormatFloat(float64(percent)/100, 'f', -1, 64)
	}
	_, err := p.do(ctx, actionVolume, arg)
	return err
}

// NowPlaying returns the current track as reported by the application, or
// nil when nothing is loaded.
func (p *Player) NowPlaying(ctx context.Context) (*core.Track, error) {
	out, err := p.do(ctx, actionNowPlaying)
	if err != nil {
		return nil, err
	}
	return ParseNowPlaying(out, p.name), nil
}

// Now is NowPlaying as an envelope.
func (p *Player) Now(ctx context.Context) core.Response[*core.Track] {
	track, err := p.NowPlaying(ctx)
	return envelope(track, err)
}

// GetState assembles the playback state from the track, status and
// position replies. It returns ErrProcessNotFound when the application is
// not running.
func (p *Player) GetState(ctx context.Context) (*core.PlaybackState, error) {
	caps := p.ctrl.Resolve()
	if !caps.CanScript {
		return nil, fmt.Errorf("%w: player scripting on %s", cerrors.ErrUnsupported, caps.OS)
	}
	if caps.CanDetect {
		running, err := p.Running(ctx)
		if err != nil {
			return nil, err
		}
		if !running {
			return nil, fmt.Errorf("%w: %s", cerrors.ErrProcessNotFound, p.process)
		}
	}

	track, err := p.NowPlaying(ctx)
	if err != nil {
		return nil, err
	}
	status, err := p.do(ctx, actionStatus)
	if err != nil {
		return nil, err
	}

	state := &core.PlaybackState{
		Track:     track,
		IsPlaying: strings.EqualFold(status, "playing"),
		Device: &core.Device{
			ID:       strings.ToLower(p.name),
			Name:     p.name,
			Type:     core.DeviceTypeComputer,
			Platform: core.PlatformDesktop,
			IsActive: true,
		},
	}
	if pos, err := p.do(ctx, actionPosition); err == nil {
		if seconds, err := strconv.ParseFloat(pos, 64); err == nil {
			state.Progress = time.Duration(seconds * float64(time.Second))
		}
	}
	return state, nil
}

// State is GetState as an envelope.
func (p *Player) State(ctx context.Context) core.Response[*core.PlaybackState] {
	state, err := p.GetState(ctx)
	return envelope(state, err)
}

// Command runs a named playback action ("play", "pause", "next", "prev")
// and returns the result as an envelope.
func (p *Player) Command(ctx context.Context, name string) core.Response[struct{}] {
	var err error
	switch name {
	case "play", "resume":
		err = p.Play(ctx)
	case "pause":
		err = p.Pause(ctx)
	case "next":
		err = p.Next(ctx)
	case "prev", "previous":
		err = p.Prev(ctx)
	default:
		return core.Failure[struct{}](http.StatusInternalServerError, fmt.Errorf("unknown player command %q", name))
	}
	return envelope(struct{}{}, err)
}

// ParseNowPlaying parses an "Artist - Title" reply. A reply that is empty
// or only the application name means nothing is playing. A reply without a
// separator is taken as the title.
func ParseNowPlaying(text, player string) *core.Track {
	text = strings.TrimSpace(text)
	if text == "" || text == "-" || strings.EqualFold(text, player) || strings.EqualFold(text, player+" Premium") {
		return nil
	}

	track := &core.Track{Source: core.SourceDesktop}
	if artist, title, ok := strings.Cut(text, " - "); ok && strings.TrimSpace(artist) != "" {
		track.Artist = strings.TrimSpace(artist)
		track.Title = strings.TrimSpace(title)
	} else {
		track.Artist = unknownArtist
		track.Title = strings.TrimSpace(strings.TrimPrefix(text, "-"))
	}
	track.Artists = []string{track.Artist}
	return track
}
