package wizard

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/cody/internal/core"
)

// SearchFunc looks up tracks for a query.
type SearchFunc func(query string) ([]core.Track, error)

// SearchModel is the bubbletea model for the track search wizard.
type SearchModel struct {
	input      textinput.Model
	help       help.Model
	results    []core.Track
	cursor     int
	searchFunc SearchFunc
	selected   *core.Track
	err        error
	debounce   time.Duration
	lastQuery  string
	searching  bool
	height     int
}

// NewSearchModel creates a new search wizard model.
func NewSearchModel(searchFunc SearchFunc) SearchModel {
	ti := textinput.New()
	ti.Placeholder = "Search for a track..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50

	return SearchModel{
		input:      ti,
		help:       newHelp(),
		searchFunc: searchFunc,
		debounce:   300 * time.Millisecond,
		height:     20,
	}
}

// Init initializes the model.
func (m SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

// debounceMsg is sent after the debounce period.
type debounceMsg struct {
	query string
}

// searchResultsMsg contains search results.
type searchResultsMsg struct {
	query   string
	results []core.Track
	err     error
}

// Update handles messages.
func (m SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, searchKeys.Quit):
			return m, tea.Quit
		case key.Matches(msg, searchKeys.Select):
			if m.cursor < len(m.results) {
				m.selected = &m.results[m.cursor]
				return m, tea.Quit
			}
			return m, nil
		}
		if cursor, ok := searchKeys.move(msg, m.cursor, len(m.results)); ok {
			m.cursor = cursor
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.input.Width = msg.Width - 4
		m.help.Width = msg.Width

	case debounceMsg:
		if msg.query == m.input.Value() && msg.query != m.lastQuery {
			m.lastQuery = msg.query
			m.searching = true
			return m, m.doSearch(msg.query)
		}
		return m, nil

	case searchResultsMsg:
		// Drop replies to queries the user has already typed past.
		if msg.query != m.lastQuery {
			return m, nil
		}
		m.searching = false
		m.results = msg.results
		m.err = msg.err
		m.cursor = 0
		return m, nil
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	if query := m.input.Value(); query != m.lastQuery {
		cmds = append(cmds, tea.Tick(m.debounce, func(time.Time) tea.Msg {
			return debounceMsg{query: query}
		}))
	}

	return m, tea.Batch(cmds...)
}

// doSearch performs the search.
func (m SearchModel) doSearch(query string) tea.Cmd {
	return func() tea.Msg {
		if strings.TrimSpace(query) == "" {
			return searchResultsMsg{query: query}
		}
		results, err := m.searchFunc(query)
		return searchResultsMsg{query: query, results: results, err: err}
	}
}

// View renders the model.
func (m SearchModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Search"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	case m.searching:
		b.WriteString("Searching...")
	case len(m.results) == 0 && m.lastQuery != "":
		b.WriteString("No results found")
	default:
		maxResults := max(m.height-10, 5)
		for i, track := range m.results {
			if i >= maxResults {
				b.WriteString(subtleStyle.Render("  ...and more"))
				break
			}

			line := track.Title
			if sub := subtitle(track); sub != "" {
				line += " " + subtleStyle.Render(sub)
			}

			if i == m.cursor {
				b.WriteString(selectedStyle.Render("▸ " + line))
			} else {
				b.WriteString(itemStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(searchKeys))

	return b.String()
}

func subtitle(t core.Track) string {
	switch {
	case t.Artist != "" && t.Album != "":
		return t.Artist + " · " + t.Album
	default:
		return t.Artist
	}
}

// Selected returns the selected track, or nil if none.
func (m SearchModel) Selected() *core.Track {
	return m.selected
}

// RunSearch runs the search wizard and returns the selected track.
func RunSearch(searchFunc SearchFunc) (*core.Track, error) {
	p := tea.NewProgram(NewSearchModel(searchFunc), tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(SearchModel).Selected(), nil
}
