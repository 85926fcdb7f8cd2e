package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/cody/internal/core"
	"github.com/tessro/cody/internal/spotify/library"
	"github.com/tessro/cody/internal/wizard"
)

var tracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "Browse and manage tracks",
	Long: `Commands for your saved tracks, search, top tracks and recommendations.

Tracks can be referred to by link, URI or id.`,
}

var tracksSavedCmd = &cobra.Command{
	Use:   "saved",
	Short: "List your saved tracks",
	Args:  cobra.NoArgs,
	RunE:  runTracksSaved,
}

var tracksSaveCmd = &cobra.Command{
	Use:   "save <track>...",
	Short: "Save tracks to your library",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTracksSave,
}

var tracksRemoveCmd = &cobra.Command{
	Use:   "remove <track>...",
	Short: "Remove tracks from your library",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTracksRemove,
}

var tracksContainsCmd = &cobra.Command{
	Use:   "contains <track>...",
	Short: "Check whether tracks are in your library",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTracksContains,
}

var tracksSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search for tracks",
	Long: `Search Spotify for tracks.

With --interactive (or no query on a terminal) a search-as-you-type picker
opens and the chosen track is played.`,
	RunE: runTracksSearch,
}

var tracksTopCmd = &cobra.Command{
	Use:   "top",
	Short: "List your most played tracks",
	Args:  cobra.NoArgs,
	RunE:  runTracksTop,
}

var tracksRecommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend tracks from seeds",
	Long: `Recommend tracks similar to between one and five seeds.

Examples:
  cody tracks recommend --track 4uLU6hMCjMI75M1A2tKUQC
  cody tracks recommend --genre ambient --target energy=0.3`,
	Args: cobra.NoArgs,
	RunE: runTracksRecommend,
}

var tracksFeaturesCmd = &cobra.Command{
	Use:   "features <track>...",
	Short: "Show audio features of tracks",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTracksFeatures,
}

var (
	trSaved       listFlags
	trSearch      listFlags
	trTop         listFlags
	trInteractive bool
	trTimeRange   string
	trSeedTracks  []string
	trSeedArtists []string
	trSeedGenres  []string
	trTargets     []string
	trLimit       int
)

func init() {
	trSaved.bind(tracksSavedCmd)
	trSearch.bind(tracksSearchCmd)
	trTop.bind(tracksTopCmd)

	tracksSearchCmd.Flags().BoolVarP(&trInteractive, "interactive", "i", false, "pick a result interactively and play it")
	tracksTopCmd.Flags().StringVarP(&trTimeRange, "range", "r", "medium", "time range: short, medium or long")

	tracksRecommendCmd.Flags().StringSliceVar(&trSeedTracks, "track", nil, "seed track (repeatable)")
	tracksRecommendCmd.Flags().StringSliceVar(&trSeedArtists, "artist", nil, "seed artist (repeatable)")
	tracksRecommendCmd.Flags().StringSliceVar(&trSeedGenres, "genre", nil, "seed genre (repeatable)")
	tracksRecommendCmd.Flags().StringArrayVar(&trTargets, "target", nil, "tunable attribute as name=value, e.g. energy=0.8 or min_tempo=120")
	tracksRecommendCmd.Flags().IntVarP(&trLimit, "limit", "l", 20, "number of tracks")

	tracksCmd.AddCommand(tracksSavedCmd)
	tracksCmd.AddCommand(tracksSaveCmd)
	tracksCmd.AddCommand(tracksRemoveCmd)
	tracksCmd.AddCommand(tracksContainsCmd)
	tracksCmd.AddCommand(tracksSearchCmd)
	tracksCmd.AddCommand(tracksTopCmd)
	tracksCmd.AddCommand(tracksRecommendCmd)
	tracksCmd.AddCommand(tracksFeaturesCmd)
	rootCmd.AddCommand(tracksCmd)
}

func runTracksSaved(cmd *cobra.Command, args []string) error {
	return render(app.Tracks.Saved(cmd.Context(), trSaved.options()), printItems)
}

func runTracksSave(cmd *cobra.Command, args []string) error {
	return render(app.Tracks.Save(cmd.Context(), args), func(struct{}) error {
		_, _ = successColor.Fprintf(out, "Saved %d %s\n", len(args), plural(len(args), "track"))
		return nil
	})
}

func runTracksRemove(cmd *cobra.Command, args []string) error {
	return render(app.Tracks.Remove(cmd.Context(), args), func(struct{}) error {
		_, _ = successColor.Fprintf(out, "Removed %d %s\n", len(args), plural(len(args), "track"))
		return nil
	})
}

func runTracksContains(cmd *cobra.Command, args []string) error {
	return render(app.Tracks.Contains(cmd.Context(), args), func(saved map[string]bool) error {
		for _, ref := range args {
			id := library.TrackID(ref)
			fmt.Fprintf(out, "%s %s\n", StatusIcon(saved[id]), id)
		}
		return nil
	})
}

// printTracks renders a plain track listing.
func printTracks(tracks []core.Track) error {
	if len(tracks) == 0 {
		fmt.Fprintln(out, "No tracks found.")
		return nil
	}

	t := newTable("#", "Title", "Artist", "Album", "Length", "URI")
	for i, track := range tracks {
		t.AppendRow([]any{
			i + 1,
			TruncateString(track.Title, 40),
			TruncateString(track.Artist, 30),
			TruncateString(track.Album, 30),
			FormatDuration(track.Duration),
			track.URI,
		})
	}
	t.Render()
	return nil
}

func runTracksSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	if trInteractive || (query == "" && wizard.IsTerminal() && !JSONOutput()) {
		return searchAndPlay(cmd.Context())
	}
	return render(app.Tracks.Search(cmd.Context(), query, trSearch.options()), printTracks)
}

func searchAndPlay(ctx context.Context) error {
	search := func(query string) ([]core.Track, error) {
		return check(app.Tracks.Search(ctx, query, library.ListOptions{Limit: 20}))
	}

	track, err := wizard.PromptTrack(search)
	if err != nil {
		return err
	}
	if track == nil {
		return nil
	}

	if err := playURI(ctx, track.URI); err != nil {
		return err
	}
	fmt.Fprintf(out, "▶ Playing: %s\n", track.DisplayName())
	return nil
}

func runTracksTop(cmd *cobra.Command, args []string) error {
	timeRange, err := library.ParseTimeRange(trTimeRange)
	if err != nil {
		return err
	}
	opts := library.TopOptions{ListOptions: trTop.options(), TimeRange: timeRange}
	return render(app.Tracks.Top(cmd.Context(), opts), printTracks)
}

// parseTargets turns name=value pairs into recommendation targets. Names
// without a min_, max_ or target_ prefix get target_.
func parseTargets(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	targets := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid target %q (want name=value)", pair)
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", name, err)
		}
		if !strings.HasPrefix(name, "min_") && !strings.HasPrefix(name, "max_") && !strings.HasPrefix(name, "target_") {
			name = "target_" + name
		}
		targets[name] = v
	}
	return targets, nil
}

func runTracksRecommend(cmd *cobra.Command, args []string) error {
	targets, err := parseTargets(trTargets)
	if err != nil {
		return err
	}

	opts := library.RecommendationOptions{
		SeedTracks:  trSeedTracks,
		SeedArtists: trSeedArtists,
		SeedGenres:  trSeedGenres,
		Limit:       trLimit,
		Target:      targets,
	}
	return render(app.Tracks.Recommendations(cmd.Context(), opts), printTracks)
}

func runTracksFeatures(cmd *cobra.Command, args []string) error {
	return render(app.Tracks.AudioFeatures(cmd.Context(), args), func(features []core.AudioFeatures) error {
		if len(features) == 0 {
			fmt.Fprintln(out, "No audio features available.")
			return nil
		}

		t := newTable("ID", "Tempo", "Key", "Energy", "Dance", "Valence", "Acoustic", "Length")
		for _, f := range features {
			t.AppendRow([]any{
				f.ID,
				fmt.Sprintf("%.0f", f.Tempo),
				keyName(f.Key, f.Mode),
				fmt.Sprintf("%.2f", f.Energy),
				fmt.Sprintf("%.2f", f.Danceability),
				fmt.Sprintf("%.2f", f.Valence),
				fmt.Sprintf("%.2f", f.Acousticness),
				FormatDuration(msDuration(f.DurationMS)),
			})
		}
		t.Render()
		return nil
	})
}

var pitchClasses = []string{"C", "C♯", "D", "D♯", "E", "F", "F♯", "G", "G♯", "A", "A♯", "B"}

// keyName renders a pitch class and mode, e.g. "F♯ minor".
func keyName(key, mode int) string {
	if key < 0 || key >= len(pitchClasses) {
		return "?"
	}
	if mode == 1 {
		return pitchClasses[key] + " major"
	}
	return pitchClasses[key] + " minor"
}
