package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tessro/cody/internal/core"
	"github.com/tessro/cody/internal/wizard"
)

var (
	devicesRefresh bool
	devicesPick    bool
	devicesPlay    bool
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available playback devices",
	Long: `Lists the Spotify Connect devices on your account.

With --pick a picker opens and playback moves to the chosen device.`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	devicesCmd.Flags().BoolVarP(&devicesRefresh, "refresh", "r", false, "Force refresh device list")
	devicesCmd.Flags().BoolVarP(&devicesPick, "pick", "p", false, "Pick a device and transfer playback to it")
	devicesCmd.Flags().BoolVar(&devicesPlay, "play", false, "Start playback after --pick")
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if devicesRefresh {
		app.Player.InvalidateDevices()
	}

	resp := app.Player.Devices(ctx)
	if !devicesPick {
		return render(resp, printDevices)
	}

	devices, err := check(resp)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices found. Make sure Spotify is open on at least one device")
	}

	picked, err := wizard.RunDevicePicker(devices)
	if err != nil {
		return err
	}
	if picked == nil {
		return nil
	}

	if err := app.Player.Transfer(ctx, picked.ID, devicesPlay).Err(); err != nil {
		return fmt.Errorf("failed to transfer playback: %w", err)
	}
	return done(map[string]any{"status": "transferred", "device": picked.Name, "device_id": picked.ID},
		"📱 Playback moved to %s", picked.Name)
}

func printDevices(devices []core.Device) error {
	if len(devices) == 0 {
		fmt.Fprintln(out, "No devices found")
		return nil
	}

	t := newTable("", "Name", "Type", "Volume", "ID")
	for _, d := range devices {
		name := d.Name
		if d.IsActive {
			name = color.GreenString(d.Name)
		}
		if d.IsRestricted {
			name += color.HiBlackString(" (restricted)")
		}

		volume := color.HiBlackString("-")
		if d.SupportsVolume {
			volume = fmt.Sprintf("%d%%", d.VolumePercent)
		}

		t.AppendRow([]any{StatusIcon(d.IsActive), name, deviceIcon(d.Type) + " " + string(d.Type), volume, d.ID})
	}
	t.Render()
	return nil
}

func deviceIcon(t core.DeviceType) string {
	switch t {
	case core.DeviceTypeComputer:
		return "💻"
	case core.DeviceTypePhone:
		return "📱"
	case core.DeviceTypeSpeaker:
		return "🔈"
	case core.DeviceTypeTV:
		return "📺"
	}
	return "🎵"
}
