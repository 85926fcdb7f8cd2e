package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/cody/internal/core"
	"github.com/tessro/cody/internal/spotify/library"
)

var playlistsCmd = &cobra.Command{
	Use:     "playlists",
	Aliases: []string{"pl"},
	Short:   "Manage playlists",
	Long: `Commands for listing and editing your playlists.

Playlists can be referred to by link, URI, id or name.`,
}

var playlistsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your playlists",
	Args:  cobra.NoArgs,
	RunE:  runPlaylistsList,
}

var playlistsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a playlist",
	Long:  `Create a playlist. Fails if a playlist with the same name already exists.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylistsCreate,
}

var playlistsDeleteCmd = &cobra.Command{
	Use:   "delete <playlist>",
	Short: "Delete (unfollow) a playlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylistsDelete,
}

var playlistsFollowCmd = &cobra.Command{
	Use:   "follow <playlist>",
	Short: "Follow a playlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylistsFollow,
}

var playlistsTracksCmd = &cobra.Command{
	Use:   "tracks <playlist>",
	Short: "List the tracks in a playlist",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlaylistsTracks,
}

var playlistsAddCmd = &cobra.Command{
	Use:   "add <playlist> <track>...",
	Short: "Add tracks to a playlist",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPlaylistsAdd,
}

var playlistsReplaceCmd = &cobra.Command{
	Use:   "replace <playlist> <track>...",
	Short: "Replace all tracks in a playlist",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPlaylistsReplace,
}

var playlistsRemoveCmd = &cobra.Command{
	Use:   "remove <playlist> <track>...",
	Short: "Remove tracks from a playlist",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPlaylistsRemove,
}

var (
	plPublic      bool
	plFollowPub   bool
	plDescription string
	plPosition    int
	plList        listFlags
	plTracks      listFlags
)

// listFlags binds the paging flags shared by listing commands.
type listFlags struct {
	limit  int
	offset int
	all    bool
	max    int
}

func (f *listFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.IntVarP(&f.limit, "limit", "l", 0, "page size (default 20)")
	fs.IntVar(&f.offset, "offset", 0, "index of the first item")
	fs.BoolVarP(&f.all, "all", "a", false, "fetch every page")
	fs.IntVar(&f.max, "max", 0, "stop after this many items with --all")
}

func (f listFlags) options() library.ListOptions {
	return library.ListOptions{Limit: f.limit, Offset: f.offset, All: f.all, Max: f.max}
}

func init() {
	plList.bind(playlistsListCmd)
	plTracks.bind(playlistsTracksCmd)

	playlistsCreateCmd.Flags().BoolVar(&plPublic, "public", false, "make the playlist public")
	playlistsCreateCmd.Flags().StringVarP(&plDescription, "description", "d", "", "playlist description")
	playlistsFollowCmd.Flags().BoolVar(&plFollowPub, "public", true, "show the playlist on your profile")
	playlistsAddCmd.Flags().IntVarP(&plPosition, "position", "p", -1, "insert at this index (default: append)")

	playlistsCmd.AddCommand(playlistsListCmd)
	playlistsCmd.AddCommand(playlistsCreateCmd)
	playlistsCmd.AddCommand(playlistsDeleteCmd)
	playlistsCmd.AddCommand(playlistsFollowCmd)
	playlistsCmd.AddCommand(playlistsTracksCmd)
	playlistsCmd.AddCommand(playlistsAddCmd)
	playlistsCmd.AddCommand(playlistsReplaceCmd)
	playlistsCmd.AddCommand(playlistsRemoveCmd)
	rootCmd.AddCommand(playlistsCmd)
}

func runPlaylistsList(cmd *cobra.Command, args []string) error {
	return render(app.Playlists.List(cmd.Context(), plList.options()), func(playlists []core.Playlist) error {
		if len(playlists) == 0 {
			fmt.Fprintln(out, "No playlists found.")
			return nil
		}

		t := newTable("Name", "Tracks", "Owner", "Visibility", "ID")
		for _, p := range playlists {
			visibility := "private"
			switch {
			case p.Collaborative:
				visibility = "collaborative"
			case p.Public:
				visibility = "public"
			}
			t.AppendRow([]any{TruncateString(p.Name, 40), humanize.Comma(int64(p.TrackCount)), p.Owner, visibility, p.ID})
		}
		t.Render()
		return nil
	})
}

func runPlaylistsCreate(cmd *cobra.Command, args []string) error {
	return render(app.Playlists.Create(cmd.Context(), args[0], plPublic, plDescription), func(p *core.Playlist) error {
		_, _ = successColor.Fprintf(out, "Created playlist %q\n", p.Name)
		fmt.Fprintf(out, "  %s\n", p.URI)
		return nil
	})
}

// resolvePlaylist turns a playlist reference into an id.
func resolvePlaylist(cmd *cobra.Command, ref string) (string, error) {
	return check(app.Playlists.Resolve(cmd.Context(), ref))
}

func runPlaylistsDelete(cmd *cobra.Command, args []string) error {
	id, err := resolvePlaylist(cmd, args[0])
	if err != nil {
		return err
	}
	return render(app.Playlists.Delete(cmd.Context(), id), func(struct{}) error {
		_, _ = successColor.Fprintf(out, "Deleted playlist %s\n", args[0])
		return nil
	})
}

func runPlaylistsFollow(cmd *cobra.Command, args []string) error {
	id, err := resolvePlaylist(cmd, args[0])
	if err != nil {
		return err
	}
	return render(app.Playlists.Follow(cmd.Context(), id, plFollowPub), func(struct{}) error {
		_, _ = successColor.Fprintf(out, "Following playlist %s\n", args[0])
		return nil
	})
}

func runPlaylistsTracks(cmd *cobra.Command, args []string) error {
	id, err := resolvePlaylist(cmd, args[0])
	if err != nil {
		return err
	}
	return render(app.Playlists.Tracks(cmd.Context(), id, plTracks.options()), printItems)
}

// printItems renders playlist or saved-track entries.
func printItems(items []core.PlaylistItem) error {
	if len(items) == 0 {
		fmt.Fprintln(out, "No tracks found.")
		return nil
	}

	t := newTable("#", "Title", "Artist", "Album", "Length", "Added")
	for i, item := range items {
		t.AppendRow([]any{
			i + 1,
			TruncateString(item.Track.Title, 40),
			TruncateString(item.Track.Artist, 30),
			TruncateString(item.Track.Album, 30),
			FormatDuration(item.Track.Duration),
			FormatAdded(item.AddedAt),
		})
	}
	t.Render()
	return nil
}

func runPlaylistsAdd(cmd *cobra.Command, args []string) error {
	id, err := resolvePlaylist(cmd, args[0])
	if err != nil {
		return err
	}

	var position *int
	if plPosition >= 0 {
		position = &plPosition
	}

	tracks := args[1:]
	return render(app.Playlists.AddTracks(cmd.Context(), id, tracks, position), func(snapshot string) error {
		_, _ = successColor.Fprintf(out, "Added %d %s to %s\n", len(tracks), plural(len(tracks), "track"), args[0])
		if Verbose() {
			fmt.Fprintf(out, "  snapshot: %s\n", snapshot)
		}
		return nil
	})
}

func runPlaylistsReplace(cmd *cobra.Command, args []string) error {
	id, err := resolvePlaylist(cmd, args[0])
	if err != nil {
		return err
	}

	tracks := args[1:]
	return render(app.Playlists.ReplaceTracks(cmd.Context(), id, tracks), func(string) error {
		_, _ = successColor.Fprintf(out, "Replaced %s with %d %s\n", args[0], len(tracks), plural(len(tracks), "track"))
		return nil
	})
}

func runPlaylistsRemove(cmd *cobra.Command, args []string) error {
	id, err := resolvePlaylist(cmd, args[0])
	if err != nil {
		return err
	}

	tracks := args[1:]
	return render(app.Playlists.RemoveTracks(cmd.Context(), id, tracks), func(string) error {
		_, _ = successColor.Fprintf(out, "Removed %d %s from %s\n", len(tracks), plural(len(tracks), "track"), args[0])
		return nil
	})
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
