package wizard

import (
	"os"

	"golang.org/x/term"

	"github.com/tessro/cody/internal/core"
)

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// ActiveDevice returns the single active device if there is exactly one.
func ActiveDevice(devices []core.Device) *core.Device {
	var active *core.Device
	count := 0
	for i := range devices {
		if devices[i].IsActive {
			active = &devices[i]
			count++
		}
	}
	if count == 1 {
		return active
	}
	return nil
}

// NeedsDevice reports whether the user has to pick a device: no device was
// named and there is not exactly one active device.
func NeedsDevice(deviceFlag string, devices []core.Device) bool {
	return deviceFlag == "" && ActiveDevice(devices) == nil
}

// PromptDevice runs the device picker when stdout is a terminal. It returns
// nil when not interactive or when the user cancels.
func PromptDevice(devices []core.Device) (*core.Device, error) {
	if !IsTerminal() || len(devices) == 0 {
		return nil, nil
	}
	return RunDevicePicker(devices)
}

// PromptTrack runs the search wizard when stdout is a terminal.
func PromptTrack(search SearchFunc) (*core.Track, error) {
	if !IsTerminal() || search == nil {
		return nil, nil
	}
	return RunSearch(search)
}
