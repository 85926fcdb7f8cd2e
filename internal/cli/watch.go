package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/cody/internal/watch"
)

var (
	watchDesktop   bool
	watchNoEmoji   bool
	watchTimestamp bool
	watchFormat    string
	watchInterval  time.Duration
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Aliases: []string{"tail"},
	Short:   "Follow playback changes as they happen",
	Long: `Poll the player and print playback changes until interrupted.

Events:
  track_change    a new track started
  track_complete  the previous track played to the end
  track_skip      the previous track was left early
  pause, resume
  volume_change, device_change

A --format template sees .Kind .Emoji .Time .Title .Artist .Album .Device
and .Volume. With --json each event is printed as one JSON object per line.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchDesktop, "desktop", false, "watch the desktop player instead of Spotify")
	watchCmd.Flags().BoolVar(&watchNoEmoji, "no-emoji", false, "disable emoji output")
	watchCmd.Flags().BoolVarP(&watchTimestamp, "timestamp", "t", false, "show timestamps")
	watchCmd.Flags().StringVarP(&watchFormat, "format", "f", "", "custom format template")
	watchCmd.Flags().DurationVarP(&watchInterval, "interval", "i", watch.DefaultInterval, "poll interval")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval < 100*time.Millisecond {
		return fmt.Errorf("interval must be at least 100ms")
	}

	formatter, err := watch.NewFormatter(watchFormat,
		watch.WithEmoji(!watchNoEmoji),
		watch.WithTimestamp(watchTimestamp),
	)
	if err != nil {
		return err
	}

	state := watch.StateFunc(app.Player.State)
	if watchDesktop {
		state = app.Desktop.State
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	enc := json.NewEncoder(out)
	w := watch.New(state, watch.WithInterval(watchInterval), watch.WithLogger(logger))
	err = w.Run(ctx, func(e watch.Event) {
		if JSONOutput() {
			_ = enc.Encode(e)
			return
		}
		fmt.Fprintln(out, formatter.Format(e))
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
