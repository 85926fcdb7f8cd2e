package wizard

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// keyMap holds the bindings shared by the pickers.
type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Top    key.Binding
	Bottom key.Binding
	Select key.Binding
	Quit   key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Top, k.Bottom}}
}

// deviceKeys navigate the device list; vim keys are allowed since there
// is no text input.
var deviceKeys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "k", "ctrl+p"), key.WithHelp("↑/k", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "j", "ctrl+n"), key.WithHelp("↓/j", "down")),
	Top:    key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
	Bottom: key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
	Select: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "select")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc", "q"), key.WithHelp("esc", "quit")),
}

// searchKeys leave letters to the query input.
var searchKeys = keyMap{
	Up:     key.NewBinding(key.WithKeys("up", "ctrl+p"), key.WithHelp("↑", "up")),
	Down:   key.NewBinding(key.WithKeys("down", "ctrl+n"), key.WithHelp("↓", "down")),
	Top:    key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "first")),
	Bottom: key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "last")),
	Select: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("esc", "quit")),
}

func newHelp() help.Model {
	h := help.New()
	h.Styles.ShortKey = subtleStyle
	h.Styles.ShortDesc = subtleStyle
	return h
}

// move applies a navigation key to cursor over n items. It reports
// whether msg was a navigation key.
func (k keyMap) move(msg tea.KeyMsg, cursor, n int) (int, bool) {
	switch {
	case key.Matches(msg, k.Up):
		if cursor > 0 {
			cursor--
		}
	case key.Matches(msg, k.Down):
		if cursor < n-1 {
			cursor++
		}
	case key.Matches(msg, k.Top):
		cursor = 0
	case key.Matches(msg, k.Bottom):
		cursor = max(n-1, 0)
	default:
		return cursor, false
	}
	return cursor, true
}
