package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/cody"
	"github.com/tessro/cody/internal/browser"
	cerrors "github.com/tessro/cody/internal/errors"
	"github.com/tessro/cody/internal/spotify/auth"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Spotify authentication",
	Long:  `Commands for obtaining and checking Spotify credentials.`,
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with Spotify",
	Long: `Opens a browser to authenticate with Spotify using the authorization code
flow with PKCE, then prints the refresh token.

Cody never stores tokens on its own. Put the printed refresh token in the
config file, a .env file or CODY_SPOTIFY_REFRESH_TOKEN.`,
	RunE: runAuthLogin,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	Long:  `Checks the configured credentials by fetching the current user.`,
	RunE:  runAuthStatus,
}

var authRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Obtain a new access token",
	Long:  `Exchanges the configured refresh token for a new access token.`,
	RunE:  runAuthRefresh,
}

func init() {
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authStatusCmd)
	authCmd.AddCommand(authRefreshCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	if cfg.Spotify.ClientID == "" {
		return cerrors.WithSuggestion(
			fmt.Errorf("spotify.client_id not configured"),
			"Set it in ~/.codyrc or via CODY_SPOTIFY_CLIENT_ID")
	}

	pkce, err := auth.NewPKCE()
	if err != nil {
		return fmt.Errorf("failed to generate PKCE: %w", err)
	}

	login := auth.NewLoginConfig(cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	if cfg.Spotify.RedirectURI != "" {
		login.RedirectURI = cfg.Spotify.RedirectURI
	}
	if cfg.Spotify.TokenURL != "" {
		login.TokenURL = cfg.Spotify.TokenURL
	}

	port, path, err := login.CallbackAddr()
	if err != nil {
		return err
	}

	callbackServer, err := auth.NewCallbackServer(port, path, pkce.State)
	if err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	callbackServer.Start()
	defer func() { _ = callbackServer.Shutdown(context.Background()) }()

	authURL := login.AuthCodeURL(pkce)

	fmt.Fprintln(out, "Opening browser for Spotify authentication...")
	if err := browser.Open(authURL); err != nil {
		fmt.Fprintln(out, "Could not open browser automatically.")
		fmt.Fprintf(out, "Please open this URL in your browser:\n\n%s\n\n", authURL)
	}

	fmt.Fprintln(out, "Waiting for authentication...")
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	result, err := callbackServer.Wait(ctx)
	if err != nil {
		return fmt.Errorf("authentication timed out: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("authentication failed: %s", result.Error)
	}

	token, err := login.Exchange(ctx, result.Code, pkce)
	if err != nil {
		return err
	}

	app.SetCredentials(cody.Credentials{
		AccessToken:  auth.String(token.AccessToken),
		RefreshToken: auth.String(token.RefreshToken),
	})

	var name string
	if me := app.Profiles.Me(ctx); me.OK() && me.Data != nil {
		name = me.Data.DisplayName
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"status":        "authenticated",
			"display_name":  name,
			"refresh_token": token.RefreshToken,
			"expires_at":    token.ExpiresAt,
		})
	}

	if name != "" {
		_, _ = successColor.Fprintf(out, "Authenticated as %s\n", name)
	} else {
		_, _ = successColor.Fprintln(out, "Authentication successful")
	}
	fmt.Fprintf(out, "\nRefresh token:\n\n  %s\n\n", token.RefreshToken)
	fmt.Fprintln(out, subtleStyle.Render("Save it with 'cody config set spotify.refresh_token <token>' or CODY_SPOTIFY_REFRESH_TOKEN."))
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	if !app.Client().Configured() {
		if JSONOutput() {
			return printJSON(map[string]any{"authenticated": false})
		}
		fmt.Fprintln(out, "Not authenticated with Spotify.")
		fmt.Fprintln(out, "Run 'cody auth login' to obtain a refresh token.")
		return nil
	}

	me := app.Profiles.Me(cmd.Context())
	if JSONOutput() {
		status := map[string]any{
			"authenticated": me.OK(),
			"status":        me.Status,
		}
		if me.OK() && me.Data != nil {
			status["user_id"] = me.Data.ID
			status["display_name"] = me.Data.DisplayName
			status["product"] = me.Data.Product
		} else {
			status["error"] = me.Message
		}
		return printJSON(status)
	}

	if !me.OK() {
		fmt.Fprintf(out, "Credentials rejected: %s\n", me.Message)
		fmt.Fprintln(out, "Run 'cody auth login' to re-authenticate.")
		return nil
	}

	_, _ = successColor.Fprintf(out, "Authenticated as %s", me.Data.DisplayName)
	fmt.Fprintf(out, " (%s, %s)\n", me.Data.ID, me.Data.Product)
	return nil
}

func runAuthRefresh(cmd *cobra.Command, args []string) error {
	token, err := app.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]any{
			"status":     "refreshed",
			"expires_at": token.ExpiresAt,
			"scope":      token.Scope,
		})
	}

	fmt.Fprintf(out, "Access token refreshed, valid until %s\n", token.ExpiresAt.Local().Format(time.Kitchen))
	if Verbose() {
		fmt.Fprintf(out, "  scope: %s\n", token.Scope)
	}
	return nil
}
