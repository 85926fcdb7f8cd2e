package wizard

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tessro/cody/internal/core"
)

var testDevices = []core.Device{
	{ID: "d1", Name: "Kitchen", Type: core.DeviceTypeSpeaker},
	{ID: "d2", Name: "MacBook", Type: core.DeviceTypeComputer, IsActive: true},
	{ID: "d3", Name: "Phone", Type: core.DeviceTypePhone},
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m tea.Model, msgs ...tea.Msg) tea.Model {
	for _, msg := range msgs {
		m, _ = m.Update(msg)
	}
	return m
}

func TestDeviceModelStartsOnActive(t *testing.T) {
	m := NewDeviceModel(testDevices)
	if m.cursor != 1 {
		t.Errorf("cursor = %d, want 1", m.cursor)
	}
}

func TestDeviceModelNavigation(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.Msg
		want string
	}{
		{"select active", []tea.Msg{tea.KeyMsg{Type: tea.KeyEnter}}, "d2"},
		{"down", []tea.Msg{tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeyEnter}}, "d3"},
		{"clamped at bottom", []tea.Msg{runes("j"), runes("j"), runes("j"), tea.KeyMsg{Type: tea.KeyEnter}}, "d3"},
		{"up", []tea.Msg{runes("k"), tea.KeyMsg{Type: tea.KeyEnter}}, "d1"},
		{"first", []tea.Msg{runes("g"), tea.KeyMsg{Type: tea.KeyEnter}}, "d1"},
		{"last", []tea.Msg{runes("G"), tea.KeyMsg{Type: tea.KeyEnter}}, "d3"},
		{"quit", []tea.Msg{tea.KeyMsg{Type: tea.KeyEsc}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(NewDeviceModel(testDevices), tt.keys...).(DeviceModel)

			got := m.Selected()
			if tt.want == "" {
				if got != nil {
					t.Errorf("Selected() = %+v, want nil", got)
				}
				return
			}
			if got == nil || got.ID != tt.want {
				t.Errorf("Selected() = %+v, want %s", got, tt.want)
			}
		})
	}
}

func TestDeviceModelEmpty(t *testing.T) {
	m := press(NewDeviceModel(nil), tea.KeyMsg{Type: tea.KeyEnter}).(DeviceModel)
	if m.Selected() != nil {
		t.Error("nothing should be selectable")
	}
	if !strings.Contains(m.View(), "No devices found") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestDeviceModelView(t *testing.T) {
	view := NewDeviceModel(testDevices).View()
	for _, want := range []string{"Select Device", "Kitchen", "MacBook", "Phone"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() is missing %q", want)
		}
	}
}

func TestSearchModelResults(t *testing.T) {
	m := NewSearchModel(func(q string) ([]core.Track, error) { return nil, nil })
	m.lastQuery = "daft"

	tracks := []core.Track{
		{ID: "t1", Title: "One More Time", Artist: "Daft Punk", Album: "Discovery"},
		{ID: "t2", Title: "Aerodynamic", Artist: "Daft Punk"},
	}

	// A stale reply is ignored.
	got := press(m, searchResultsMsg{query: "daf", results: tracks[:1]}).(SearchModel)
	if len(got.results) != 0 {
		t.Fatalf("stale results applied: %+v", got.results)
	}

	got = press(got,
		searchResultsMsg{query: "daft", results: tracks},
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyEnter},
	).(SearchModel)

	if sel := got.Selected(); sel == nil || sel.ID != "t2" {
		t.Errorf("Selected() = %+v, want t2", sel)
	}
}

func TestSearchModelView(t *testing.T) {
	m := NewSearchModel(nil)
	m.lastQuery = "x"
	m = press(m, searchResultsMsg{query: "x", results: []core.Track{{Title: "Song", Artist: "Band", Album: "LP"}}}).(SearchModel)
	if view := m.View(); !strings.Contains(view, "Song") || !strings.Contains(view, "Band · LP") {
		t.Errorf("View() = %q", view)
	}

	m = press(m, searchResultsMsg{query: "x", err: errors.New("boom")}).(SearchModel)
	if !strings.Contains(m.View(), "Error: boom") {
		t.Errorf("View() = %q", m.View())
	}
}

func TestDoSearch(t *testing.T) {
	var queried string
	m := NewSearchModel(func(q string) ([]core.Track, error) {
		queried = q
		return []core.Track{{ID: "t1"}}, nil
	})

	msg := m.doSearch("daft punk")().(searchResultsMsg)
	if queried != "daft punk" || len(msg.results) != 1 || msg.query != "daft punk" {
		t.Errorf("doSearch() = %+v, queried %q", msg, queried)
	}

	queried = ""
	if msg := m.doSearch("  ")().(searchResultsMsg); msg.results != nil || queried != "" {
		t.Error("blank queries should not search")
	}
}

func TestActiveDevice(t *testing.T) {
	if d := ActiveDevice(testDevices); d == nil || d.ID != "d2" {
		t.Errorf("ActiveDevice() = %+v", d)
	}

	two := append([]core.Device(nil), testDevices...)
	two[0].IsActive = true
	if ActiveDevice(two) != nil {
		t.Error("two active devices should be ambiguous")
	}

	if NeedsDevice("", testDevices) {
		t.Error("one active device needs no prompt")
	}
	if !NeedsDevice("", two) {
		t.Error("ambiguous devices need a prompt")
	}
	if NeedsDevice("Kitchen", two) {
		t.Error("a named device needs no prompt")
	}
}
