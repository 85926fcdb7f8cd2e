package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/cody/internal/core"
	cerrors "github.com/tessro/cody/internal/errors"
)

var statusPlatform string

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"now"},
	Short:   "Show what is playing",
	Long:    `Show the playback state of Spotify Connect and the desktop player.`,
	Args:    cobra.NoArgs,
	RunE:    runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusPlatform, "platform", "p", "", "Only show one platform (spotify or desktop)")
	rootCmd.AddCommand(statusCmd)
}

type statusResult struct {
	Platform core.Platform       `json:"platform"`
	State    *core.PlaybackState `json:"state"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var platforms []core.Platform
	switch strings.ToLower(statusPlatform) {
	case "":
		platforms = []core.Platform{core.PlatformSpotify, core.PlatformDesktop}
	case string(core.PlatformSpotify):
		platforms = []core.Platform{core.PlatformSpotify}
	case string(core.PlatformDesktop):
		platforms = []core.Platform{core.PlatformDesktop}
	default:
		return fmt.Errorf("unknown platform %q (want spotify or desktop)", statusPlatform)
	}

	results, err := collectStatus(ctx, platforms, statusPlatform != "")
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(results)
	}
	return outputStatusTable(results)
}

// collectStatus gathers the state of each platform. Platforms that are not
// set up are skipped unless strict is set.
func collectStatus(ctx context.Context, platforms []core.Platform, strict bool) ([]statusResult, error) {
	var results []statusResult

	for _, platform := range platforms {
		var resp core.Response[*core.PlaybackState]
		switch platform {
		case core.PlatformSpotify:
			if !strict && !app.Client().Configured() {
				continue
			}
			resp = app.Player.State(ctx)
		case core.PlatformDesktop:
			if !strict && !app.Capabilities().CanScript {
				continue
			}
			resp = app.Desktop.State(ctx)
			if !strict && errors.Is(resp.Error, cerrors.ErrProcessNotFound) {
				continue
			}
		}

		if !resp.OK() {
			if strict {
				return nil, resp.Err()
			}
			logFailure(platform, resp)
			continue
		}
		results = append(results, statusResult{Platform: platform, State: resp.Data})
	}

	if strict && len(results) == 0 {
		return nil, fmt.Errorf("no playback information available")
	}
	return results, nil
}

func logFailure[T any](platform core.Platform, resp core.Response[T]) {
	if Verbose() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", platform, resp.Err())
	}
}

func outputStatusTable(results []statusResult) error {
	if len(results) == 0 {
		fmt.Fprintln(out, "Nothing playing")
		return nil
	}

	for i, s := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}

		fmt.Fprintln(out, headerStyle.Render("["+strings.ToUpper(string(s.Platform))+"]"))

		if !s.State.HasTrack() {
			fmt.Fprintln(out, "  No track playing")
			continue
		}

		playIcon := "▶"
		if !s.State.IsPlaying {
			playIcon = "⏸"
		}

		track := s.State.Track
		fmt.Fprintf(out, "  %s %s\n", playIcon, track.Title)
		if track.Album != "" {
			fmt.Fprintf(out, "    %s · %s\n", track.Artist, track.Album)
		} else {
			fmt.Fprintf(out, "    %s\n", track.Artist)
		}

		if track.Duration > 0 {
			fmt.Fprintf(out, "    %s %s / %s\n",
				FormatProgress(s.State.ProgressPercent(), 30),
				FormatDuration(s.State.Progress),
				FormatDuration(track.Duration))
		}

		if d := s.State.Device; d != nil {
			fmt.Fprintf(out, "    %s %s", deviceIcon(d.Type), d.Name)
			if s.State.Volume > 0 {
				fmt.Fprintf(out, " (🔊 %d%%)", s.State.Volume)
			}
			fmt.Fprintln(out)
		}

		var modes []string
		if s.State.ShuffleState {
			modes = append(modes, "🔀 shuffle")
		}
		if s.State.RepeatState != "" && s.State.RepeatState != "off" {
			modes = append(modes, "🔁 repeat "+s.State.RepeatState)
		}
		if len(modes) > 0 {
			fmt.Fprintln(out, "    "+subtleStyle.Render(strings.Join(modes, "  ")))
		}
	}

	return nil
}
