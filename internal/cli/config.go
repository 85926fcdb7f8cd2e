package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/tessro/cody/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Commands for viewing and editing cody configuration.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration. Secrets are redacted.`,
	RunE:  runConfigShow,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit configuration file",
	Long:  `Open the configuration file in your default editor.`,
	RunE:  runConfigEdit,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	Long:  `Create a new configuration file with default values.`,
	RunE:  runConfigInit,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Supported keys:
  spotify.client_id       Spotify client ID
  spotify.client_secret   Spotify client secret
  spotify.refresh_token   Refresh token from 'cody auth login'
  spotify.redirect_uri    OAuth redirect URI
  cache.profile_ttl       Profile cache lifetime in seconds
  cache.playlists_ttl     Playlist cache lifetime in seconds
  cache.devices_ttl       Device cache lifetime in seconds
  http.timeout            Request timeout in seconds
  http.rate_limit         Requests per second (0 = unlimited)
  desktop.player          Desktop player application name
  defaults.device         Default playback device name or ID
  defaults.volume         Default volume (0-100)
  log.level               debug, info, warn or error

Examples:
  cody config set defaults.device "MacBook Pro"
  cody config set http.rate_limit 5`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configSetDeviceCmd = &cobra.Command{
	Use:   "set-device",
	Short: "Interactively select default device",
	Long:  `Shows a picker to select the default playback device.`,
	RunE:  runConfigSetDevice,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEditCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configSetDeviceCmd)
	rootCmd.AddCommand(configCmd)
}

func getConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.Path()
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	shown := *cfg
	shown.Spotify.ClientSecret = redact(shown.Spotify.ClientSecret)
	shown.Spotify.RefreshToken = redact(shown.Spotify.RefreshToken)

	if JSONOutput() {
		return printJSON(shown)
	}

	fmt.Fprintln(out, subtleStyle.Render("# "+getConfigPath()))
	encoder := toml.NewEncoder(out)
	encoder.Indent = "  "
	return encoder.Encode(shown)
}

func runConfigEdit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file not found at %s. Run 'cody config init' first", configPath)
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi", "notepad"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		return fmt.Errorf("no editor found. Set EDITOR environment variable")
	}

	editorCmd := exec.Command(editor, configPath)
	editorCmd.Stdin = os.Stdin
	editorCmd.Stdout = os.Stdout
	editorCmd.Stderr = os.Stderr

	return editorCmd.Run()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists at %s", configPath)
	}

	if err := config.Write(configPath, config.Default()); err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]string{
			"status": "created",
			"path":   configPath,
		})
	}

	fmt.Fprintf(out, "Created config file: %s\n", configPath)
	fmt.Fprintln(out, "\nNext steps:")
	fmt.Fprintln(out, "  1. Set your Spotify client ID and secret in the config file or a .env file")
	fmt.Fprintln(out, "  2. Run 'cody auth login' and save the refresh token it prints")
	return nil
}

var (
	intKeys = map[string]bool{
		"cache.sweep_interval": true,
		"cache.profile_ttl":    true,
		"cache.playlists_ttl":  true,
		"cache.devices_ttl":    true,
		"http.timeout":         true,
		"defaults.volume":      true,
	}
	floatKeys = map[string]bool{
		"http.rate_limit": true,
	}
)

// typedValue converts a command-line value to the TOML type of key.
func typedValue(key, value string) (any, error) {
	switch {
	case intKeys[key]:
		i, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("value must be an integer for %s", key)
		}
		return i, nil
	case floatKeys[key]:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("value must be a number for %s", key)
		}
		return f, nil
	}
	return value, nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	section, field, ok := strings.Cut(key, ".")
	if !ok || section == "" || field == "" || strings.Contains(field, ".") {
		return fmt.Errorf("invalid key format. Use 'section.key' (e.g., defaults.device)")
	}
	if key == "spotify.access_token" {
		return fmt.Errorf("access tokens are never stored. Set CODY_SPOTIFY_ACCESS_TOKEN instead")
	}

	configPath := getConfigPath()

	rawConfig := map[string]any{}
	if data, err := os.ReadFile(configPath); err == nil {
		if _, err := toml.Decode(string(data), &rawConfig); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read config: %w", err)
	}

	sectionMap, ok := rawConfig[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		rawConfig[section] = sectionMap
	}

	typed, err := typedValue(key, value)
	if err != nil {
		return err
	}
	sectionMap[field] = typed

	if err := config.Write(configPath, rawConfig); err != nil {
		return err
	}

	shown := value
	if key == "spotify.client_secret" || key == "spotify.refresh_token" {
		shown = redact(value)
	}
	return done(map[string]any{
		"status": "updated",
		"key":    key,
		"value":  shown,
	}, "Set %s = %s", key, shown)
}

func runConfigSetDevice(cmd *cobra.Command, args []string) error {
	devices, err := check(app.Player.Devices(cmd.Context()))
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices found. Make sure Spotify is open on at least one device")
	}

	var options []huh.Option[string]
	for _, d := range devices {
		label := fmt.Sprintf("%s (%s)", d.Name, d.Type)
		if d.IsActive {
			label += " [active]"
		}
		options = append(options, huh.NewOption(label, d.Name))
	}

	var selected string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select default device").
				Description("This device will be used when no active device is found").
				Options(options...).
				Value(&selected),
		),
	)

	if err := form.Run(); err != nil {
		return fmt.Errorf("selection cancelled: %w", err)
	}

	return runConfigSet(cmd, []string{"defaults.device", selected})
}
