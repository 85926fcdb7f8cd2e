package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/cody/internal/core"
	cerrors "github.com/tessro/cody/internal/errors"
	"github.com/tessro/cody/internal/spotify/player"
	"github.com/tessro/cody/internal/wizard"
)

var (
	controlDevice string
	useDesktop    bool
)

var playCmd = &cobra.Command{
	Use:   "play [uri]",
	Short: "Start or resume playback",
	Long: `Resume playback, or play a track, album, playlist or artist.

Examples:
  cody play                                        # Resume
  cody play spotify:track:4uLU6hMCjMI75M1A2tKUQC   # Play a track
  cody play https://open.spotify.com/album/...     # Play an album
  cody play --desktop                              # Resume the desktop player`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Long:  `Pause the current playback.`,
	RunE:  runPause,
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume playback",
	Long:  `Resume paused playback.`,
	RunE:  runResume,
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to next track",
	Long:  `Skip to the next track in the queue.`,
	RunE:  runNext,
}

var prevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Go to previous track",
	Long:  `Go back to the previous track.`,
	RunE:  runPrev,
}

var restartCmd = &cobra.Command{
	Use:     "restart",
	Aliases: []string{"replay"},
	Short:   "Restart current track",
	Long:    `Restart the current track from the beginning.`,
	RunE:    runRestart,
}

var seekCmd = &cobra.Command{
	Use:   "seek <position>",
	Short: "Seek within the current track",
	Long: `Seek to a position given as seconds, m:ss or a Go duration.

Examples:
  cody seek 90
  cody seek 1:30
  cody seek 1m30s`,
	Args: cobra.ExactArgs(1),
	RunE: runSeek,
}

var (
	volumeUp   bool
	volumeDown bool
)

var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Set or adjust volume",
	Long: `Set the playback volume (0-100) or adjust it up/down.

Examples:
  cody volume 50      # Set volume to 50%
  cody volume --up    # Increase volume by 10%
  cody volume --down  # Decrease volume by 10%`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVolume,
}

var shuffleCmd = &cobra.Command{
	Use:       "shuffle <on|off>",
	Short:     "Toggle shuffle",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE:      runShuffle,
}

var repeatCmd = &cobra.Command{
	Use:       "repeat <off|track|context>",
	Short:     "Set repeat mode",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"off", "track", "context"},
	RunE:      runRepeat,
}

var transferPlay bool

var transferCmd = &cobra.Command{
	Use:   "transfer <device>",
	Short: "Move playback to another device",
	Args:  cobra.ExactArgs(1),
	RunE:  runTransfer,
}

func init() {
	for _, c := range []*cobra.Command{playCmd, pauseCmd, resumeCmd, nextCmd, prevCmd, restartCmd, seekCmd, volumeCmd} {
		c.Flags().StringVarP(&controlDevice, "device", "d", "", "Target device")
		c.Flags().BoolVar(&useDesktop, "desktop", false, "Control the desktop player instead of Spotify Connect")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{shuffleCmd, repeatCmd} {
		c.Flags().StringVarP(&controlDevice, "device", "d", "", "Target device")
		rootCmd.AddCommand(c)
	}

	volumeCmd.Flags().BoolVar(&volumeUp, "up", false, "Increase volume by 10%")
	volumeCmd.Flags().BoolVar(&volumeDown, "down", false, "Decrease volume by 10%")
	transferCmd.Flags().BoolVarP(&transferPlay, "play", "p", false, "Start playback on the new device")
	rootCmd.AddCommand(transferCmd)
}

// spotifyOptions picks the Connect device for a command: --device first,
// then defaults.device when no device is active.
func spotifyOptions(ctx context.Context) player.Options {
	ref := controlDevice
	if ref == "" && cfg.Defaults.Device != "" {
		if devices := app.Player.Devices(ctx); devices.OK() && wizard.NeedsDevice(ref, devices.Data) {
			ref = cfg.Defaults.Device
		}
	}
	if ref == "" {
		return player.Options{}
	}
	if found := app.Player.FindDevice(ctx, ref); found.OK() {
		return player.Options{DeviceID: found.Data.ID}
	}
	return player.Options{DeviceID: ref}
}

// targetPlayer returns the player a control command acts on.
func targetPlayer(ctx context.Context) core.Player {
	if useDesktop {
		return app.Desktop
	}
	return app.Player.Remote(spotifyOptions(ctx))
}

// pickDevice asks the user for a Connect device when stdout is a terminal.
// It returns nil when there is nothing to pick or the user cancels.
func pickDevice(ctx context.Context) *core.Device {
	if JSONOutput() {
		return nil
	}
	devices := app.Player.Devices(ctx)
	if !devices.OK() {
		return nil
	}
	picked, err := wizard.PromptDevice(devices.Data)
	if err != nil {
		return nil
	}
	return picked
}

// control runs action against the target player. When Spotify reports no
// active device the user picks one and the action is retried once on it.
func control(ctx context.Context, action func(core.Player) error) error {
	err := action(targetPlayer(ctx))
	if err == nil || useDesktop || !errors.Is(err, cerrors.ErrNoActiveDevice) {
		return err
	}
	if picked := pickDevice(ctx); picked != nil {
		return action(app.Player.Remote(player.Options{DeviceID: picked.ID}))
	}
	return err
}

// playURI starts uri on Spotify, prompting for a device when none is active.
func playURI(ctx context.Context, uri string) error {
	err := app.Player.PlayURI(ctx, uri, spotifyOptions(ctx)).Err()
	if err == nil || !errors.Is(err, cerrors.ErrNoActiveDevice) {
		return err
	}
	if picked := pickDevice(ctx); picked != nil {
		return app.Player.PlayURI(ctx, uri, player.Options{DeviceID: picked.ID}).Err()
	}
	return err
}

func runPlay(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return runResume(cmd, args)
	}
	if useDesktop {
		return fmt.Errorf("the desktop player cannot open URIs; drop --desktop")
	}

	uri := args[0]
	if err := playURI(cmd.Context(), uri); err != nil {
		return fmt.Errorf("failed to play: %w", err)
	}
	return done(map[string]any{"status": "playing", "uri": uri}, "▶ Playing %s", uri)
}

func runPause(cmd *cobra.Command, args []string) error {
	if err := control(cmd.Context(), func(p core.Player) error { return p.Pause(cmd.Context()) }); err != nil {
		return fmt.Errorf("failed to pause: %w", err)
	}
	return done(map[string]any{"status": "paused"}, "⏸ Paused")
}

func runResume(cmd *cobra.Command, args []string) error {
	if err := control(cmd.Context(), func(p core.Player) error { return p.Play(cmd.Context()) }); err != nil {
		return fmt.Errorf("failed to resume: %w", err)
	}
	return done(map[string]any{"status": "playing"}, "▶ Resumed")
}

func runNext(cmd *cobra.Command, args []string) error {
	if err := control(cmd.Context(), func(p core.Player) error { return p.Next(cmd.Context()) }); err != nil {
		return fmt.Errorf("failed to skip: %w", err)
	}
	return done(map[string]any{"status": "skipped"}, "⏭ Skipped to next track")
}

func runPrev(cmd *cobra.Command, args []string) error {
	if err := control(cmd.Context(), func(p core.Player) error { return p.Prev(cmd.Context()) }); err != nil {
		return fmt.Errorf("failed to go back: %w", err)
	}
	return done(map[string]any{"status": "previous"}, "⏮ Previous track")
}

func runRestart(cmd *cobra.Command, args []string) error {
	if err := control(cmd.Context(), func(p core.Player) error { return p.Seek(cmd.Context(), 0) }); err != nil {
		return fmt.Errorf("failed to restart: %w", err)
	}
	return done(map[string]any{"status": "restarted"}, "⏪ Restarted track")
}

// parsePosition accepts seconds, m:ss, h:mm:ss or a Go duration.
func parsePosition(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid position %q", s)
	}
	var total time.Duration
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid position %q", s)
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, nil
}

func runSeek(cmd *cobra.Command, args []string) error {
	position, err := parsePosition(args[0])
	if err != nil {
		return err
	}

	ms := int(position / time.Millisecond)
	if err := control(cmd.Context(), func(p core.Player) error { return p.Seek(cmd.Context(), ms) }); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return done(map[string]any{"status": "seeked", "position_ms": ms}, "⏩ Seeked to %s", FormatDuration(position))
}

func runVolume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if volumeUp && volumeDown {
		return fmt.Errorf("--up and --down are mutually exclusive")
	}

	var level int
	switch {
	case len(args) > 0:
		v, err := strconv.Atoi(args[0])
		if err != nil || v < 0 || v > 100 {
			return fmt.Errorf("volume must be between 0 and 100")
		}
		level = v
	case volumeUp || volumeDown:
		state, err := targetPlayer(ctx).GetState(ctx)
		if err != nil {
			return fmt.Errorf("failed to get current volume: %w", err)
		}
		current := 0
		if state != nil {
			current = state.Volume
		}
		if volumeUp {
			level = min(current+10, 100)
		} else {
			level = max(current-10, 0)
		}
	default:
		state, err := targetPlayer(ctx).GetState(ctx)
		if err != nil {
			return fmt.Errorf("failed to get volume: %w", err)
		}
		current := 0
		if state != nil {
			current = state.Volume
		}
		if JSONOutput() {
			return printJSON(map[string]int{"volume": current})
		}
		fmt.Fprintf(out, "🔊 %d%%\n", current)
		return nil
	}

	if err := control(ctx, func(p core.Player) error { return p.Volume(ctx, level) }); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return done(map[string]any{"status": "volume_set", "volume": level}, "🔊 Volume %d%%", level)
}

func runShuffle(cmd *cobra.Command, args []string) error {
	var on bool
	switch strings.ToLower(args[0]) {
	case "on", "true", "yes":
		on = true
	case "off", "false", "no":
	default:
		return fmt.Errorf("shuffle must be on or off")
	}

	resp := app.Player.Shuffle(cmd.Context(), on, spotifyOptions(cmd.Context()))
	if err := resp.Err(); err != nil {
		return fmt.Errorf("failed to set shuffle: %w", err)
	}
	state := "off"
	if on {
		state = "on"
	}
	return done(map[string]any{"status": "shuffle", "shuffle": on}, "🔀 Shuffle %s", state)
}

func runRepeat(cmd *cobra.Command, args []string) error {
	mode := strings.ToLower(args[0])
	resp := app.Player.Repeat(cmd.Context(), mode, spotifyOptions(cmd.Context()))
	if err := resp.Err(); err != nil {
		return fmt.Errorf("failed to set repeat: %w", err)
	}
	return done(map[string]any{"status": "repeat", "repeat": mode}, "🔁 Repeat %s", mode)
}

func runTransfer(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	device, err := check(app.Player.FindDevice(ctx, args[0]))
	if err != nil {
		return err
	}
	if err := app.Player.Transfer(ctx, device.ID, transferPlay).Err(); err != nil {
		return fmt.Errorf("failed to transfer playback: %w", err)
	}
	return done(map[string]any{"status": "transferred", "device": device.Name, "device_id": device.ID},
		"📱 Playback moved to %s", device.Name)
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
