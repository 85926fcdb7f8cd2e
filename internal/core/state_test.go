package core

import (
	"testing"
	"time"
)

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name  string
		state *PlaybackState
		want  float64
	}{
		{"nil state", nil, 0},
		{"no track", &PlaybackState{Progress: time.Second}, 0},
		{"zero duration", &PlaybackState{Track: &Track{}, Progress: time.Second}, 0},
		{"halfway", &PlaybackState{Track: &Track{Duration: 4 * time.Minute}, Progress: 2 * time.Minute}, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.ProgressPercent(); got != tt.want {
				t.Errorf("ProgressPercent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		track *Track
		want  string
	}{
		{nil, ""},
		{&Track{Title: "Intro"}, "Intro"},
		{&Track{Title: "Teardrop", Artist: "Massive Attack"}, "Massive Attack - Teardrop"},
	}

	for _, tt := range tests {
		if got := tt.track.DisplayName(); got != tt.want {
			t.Errorf("DisplayName() = %q, want %q", got, tt.want)
		}
	}
}
