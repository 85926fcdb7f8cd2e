package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tessro/cody/internal/core"
)

var desktopCmd = &cobra.Command{
	Use:   "desktop",
	Short: "Control the local desktop player",
	Long: `Commands for the desktop player application.

Process detection uses pgrep/pkill (tasklist/taskkill on Windows). Scripting
uses osascript on macOS and playerctl on Linux.`,
}

var desktopInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show what this host supports",
	Args:  cobra.NoArgs,
	RunE:  runDesktopInfo,
}

var desktopRunningCmd = &cobra.Command{
	Use:   "running [process]",
	Short: "Check whether the player process is running",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDesktopRunning,
}

var desktopQuitCmd = &cobra.Command{
	Use:   "quit [process]",
	Short: "Terminate the player process",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDesktopQuit,
}

var desktopRunCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Send a scripting command to the player",
	Long: `Send a raw scripting command to the desktop player.

Examples:
  cody desktop run playpause                 # macOS
  cody desktop run "set sound volume to" 40  # macOS
  cody desktop run metadata title            # Linux`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDesktopRun,
}

var desktopNowCmd = &cobra.Command{
	Use:   "now",
	Short: "Show the track playing in the desktop player",
	Args:  cobra.NoArgs,
	RunE:  runDesktopNow,
}

var desktopPlayer string

func init() {
	desktopCmd.PersistentFlags().StringVar(&desktopPlayer, "player", "", "player application (default: desktop.player)")

	desktopCmd.AddCommand(desktopInfoCmd)
	desktopCmd.AddCommand(desktopRunningCmd)
	desktopCmd.AddCommand(desktopQuitCmd)
	desktopCmd.AddCommand(desktopRunCmd)
	desktopCmd.AddCommand(desktopNowCmd)
	rootCmd.AddCommand(desktopCmd)
}

func playerName() string {
	if desktopPlayer != "" {
		return desktopPlayer
	}
	return app.Desktop.Name()
}

func processName(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if desktopPlayer != "" {
		return desktopPlayer
	}
	return cfg.Desktop.Process
}

func runDesktopInfo(cmd *cobra.Command, args []string) error {
	caps := app.Capabilities()
	if JSONOutput() {
		return printJSON(caps)
	}

	t := newTable("OS", "Process detection", "Scripting", "Player")
	t.AppendRow([]any{caps.OS, StatusIcon(caps.CanDetect), StatusIcon(caps.CanScript) + " " + caps.Scripter, playerName()})
	t.Render()
	return nil
}

func runDesktopRunning(cmd *cobra.Command, args []string) error {
	name := processName(args)
	running, err := app.IsProcessRunning(cmd.Context(), name)
	if err != nil {
		return err
	}

	if JSONOutput() {
		return printJSON(map[string]any{"process": name, "running": running})
	}
	if running {
		fmt.Fprintf(out, "%s %s is running\n", StatusIcon(true), name)
	} else {
		fmt.Fprintf(out, "%s %s is not running\n", StatusIcon(false), name)
	}
	return nil
}

func runDesktopQuit(cmd *cobra.Command, args []string) error {
	name := processName(args)
	if err := app.KillProcess(cmd.Context(), name); err != nil {
		return err
	}
	return done(map[string]any{"status": "stopped", "process": name}, "⏹ Stopped %s", name)
}

func runDesktopRun(cmd *cobra.Command, args []string) error {
	resp := app.RunPlayerCommand(cmd.Context(), playerName(), args[0], args[1:]...)
	return render(resp, func(reply string) error {
		if reply != "" {
			fmt.Fprintln(out, reply)
		}
		return nil
	})
}

func runDesktopNow(cmd *cobra.Command, args []string) error {
	return render(app.Desktop.Now(cmd.Context()), func(t *core.Track) error {
		if t == nil {
			fmt.Fprintln(out, "Nothing playing")
			return nil
		}
		fmt.Fprintf(out, "♪ %s\n", t.DisplayName())
		return nil
	})
}
