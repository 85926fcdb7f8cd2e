package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/cody/internal/core"
)

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the authenticated Spotify profile",
	RunE:  runMe,
}

func init() {
	rootCmd.AddCommand(meCmd)
}

func runMe(cmd *cobra.Command, args []string) error {
	return render(app.Profiles.Me(cmd.Context()), func(p *core.UserProfile) error {
		fmt.Fprintln(out, headerStyle.Render(p.DisplayName))
		fmt.Fprintf(out, "  id:        %s\n", p.ID)
		if p.Email != "" {
			fmt.Fprintf(out, "  email:     %s\n", p.Email)
		}
		if p.Country != "" {
			fmt.Fprintf(out, "  country:   %s\n", p.Country)
		}
		fmt.Fprintf(out, "  plan:      %s\n", p.Product)
		fmt.Fprintf(out, "  followers: %s\n", humanize.Comma(int64(p.Followers)))
		if !p.IsPremium() {
			fmt.Fprintln(out, subtleStyle.Render("  Playback control requires Spotify Premium."))
		}
		return nil
	})
}
