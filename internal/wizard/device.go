package wizard

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/cody/internal/core"
)

// Styles shared by the pickers.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	itemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	selectedStyle = lipgloss.NewStyle().
			PaddingLeft(2).
			Background(lipgloss.Color("237"))

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

// DeviceModel is the bubbletea model for the device picker.
type DeviceModel struct {
	devices  []core.Device
	cursor   int
	selected *core.Device
	help     help.Model
	width    int
}

// NewDeviceModel creates a device picker with the cursor on the active device.
func NewDeviceModel(devices []core.Device) DeviceModel {
	m := DeviceModel{
		devices: devices,
		help:    newHelp(),
		width:   80,
	}
	for i, d := range devices {
		if d.IsActive {
			m.cursor = i
			break
		}
	}
	return m
}

// Init initializes the model.
func (m DeviceModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m DeviceModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, deviceKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, deviceKeys.Select):
			if m.cursor < len(m.devices) {
				m.selected = &m.devices[m.cursor]
				return m, tea.Quit
			}
		default:
			m.cursor, _ = deviceKeys.move(msg, m.cursor, len(m.devices))
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
	}

	return m, nil
}

// View renders the model.
func (m DeviceModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Select Device"))
	b.WriteString("\n\n")

	if len(m.devices) == 0 {
		b.WriteString(subtleStyle.Render("No devices found"))
		b.WriteString("\n\n")
		b.WriteString(subtleStyle.Render("Open Spotify on a phone, computer or speaker and try again."))
	}

	for i, device := range m.devices {
		var line strings.Builder
		if device.IsActive {
			line.WriteString(activeStyle.Render("● "))
		} else {
			line.WriteString(subtleStyle.Render("○ "))
		}
		line.WriteString(device.Name)
		line.WriteString(" " + subtleStyle.Render("("+string(device.Type)+")"))
		if device.IsRestricted {
			line.WriteString(subtleStyle.Render(" restricted"))
		}

		if i == m.cursor {
			b.WriteString(selectedStyle.Render("▸ " + line.String()))
		} else {
			b.WriteString(itemStyle.Render("  " + line.String()))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(deviceKeys))

	return b.String()
}

// Selected returns the selected device, or nil if none.
func (m DeviceModel) Selected() *core.Device {
	return m.selected
}

// RunDevicePicker runs the device picker and returns the selected device.
func RunDevicePicker(devices []core.Device) (*core.Device, error) {
	p := tea.NewProgram(NewDeviceModel(devices), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(DeviceModel).Selected(), nil
}
