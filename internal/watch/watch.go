// Package watch polls a player and reports playback changes as events.
package watch

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/tessro/cody/internal/core"
	"github.com/tessro/cody/internal/logging"
)

// Kind names a playback change.
type Kind string

const (
	KindTrack    Kind = "track_change"
	KindComplete Kind = "track_complete"
	KindSkip     Kind = "track_skip"
	KindPause    Kind = "pause"
	KindResume   Kind = "resume"
	KindVolume   Kind = "volume_change"
	KindDevice   Kind = "device_change"
)

// DefaultInterval is the poll period used when none is given.
const DefaultInterval = 2 * time.Second

// completeRatio is how far into a track the previous poll must have been
// for a track change to count as a completion rather than a skip.
const completeRatio = 0.95

// Event is one detected change between two polls.
type Event struct {
	Kind     Kind                `json:"kind"`
	At       time.Time           `json:"at"`
	Previous *core.PlaybackState `json:"previous,omitempty"`
	Current  *core.PlaybackState `json:"current"`
}

// StateFunc fetches the current playback state.
type StateFunc func(ctx context.Context) core.Response[*core.PlaybackState]

// Watcher polls a StateFunc at a fixed interval.
type Watcher struct {
	state    StateFunc
	interval time.Duration
	now      func() time.Time
	logger   *log.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithInterval sets the poll period.
func WithInterval(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// WithLogger sets the logger used for failed polls.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithClock overrides the event timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		if now != nil {
			w.now = now
		}
	}
}

// New creates a watcher for state.
func New(state StateFunc, opts ...Option) *Watcher {
	w := &Watcher{
		state:    state,
		interval: DefaultInterval,
		now:      time.Now,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run polls until ctx is cancelled, calling emit for every change in the
// order it was detected. A failed poll is logged and skipped; the next
// successful poll is compared against the last good state.
func (w *Watcher) Run(ctx context.Context, emit func(Event)) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var prev *core.PlaybackState
	first := true

	for {
		resp := w.state(ctx)
		if resp.OK() {
			for _, e := range Diff(prev, resp.Data, first, w.now()) {
				emit(e)
			}
			prev, first = resp.Data, false
		} else {
			w.logger.Debug("poll failed", "status", resp.Status, "err", resp.Err())
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Diff compares two states. On the first poll only a playing track is
// reported. A nil current state means nothing is playing. Leaving a track
// reports a completion or skip followed by the new track, if any.
func Diff(prev, curr *core.PlaybackState, first bool, at time.Time) []Event {
	event := func(k Kind) Event {
		return Event{Kind: k, At: at, Previous: prev, Current: curr}
	}

	if first {
		if curr.HasTrack() {
			return []Event{event(KindTrack)}
		}
		return nil
	}

	var events []Event

	if trackURI(prev) != trackURI(curr) {
		if prev.HasTrack() {
			if finished(prev) {
				events = append(events, event(KindComplete))
			} else {
				events = append(events, event(KindSkip))
			}
		}
		if curr.HasTrack() {
			events = append(events, event(KindTrack))
		}
	}

	wasPlaying, isPlaying := prev != nil && prev.IsPlaying, curr != nil && curr.IsPlaying
	switch {
	case wasPlaying && !isPlaying:
		events = append(events, event(KindPause))
	case !wasPlaying && isPlaying:
		events = append(events, event(KindResume))
	}

	if prev != nil && curr != nil && prev.Volume != curr.Volume {
		events = append(events, event(KindVolume))
	}

	if deviceID(prev) != deviceID(curr) && curr != nil {
		events = append(events, event(KindDevice))
	}

	return events
}

// trackURI identifies a track across polls. Desktop tracks have no URI, so
// the display name is part of the key.
func trackURI(s *core.PlaybackState) string {
	if !s.HasTrack() {
		return ""
	}
	return s.Track.URI + "\x00" + s.Track.DisplayName()
}

func deviceID(s *core.PlaybackState) string {
	if s == nil || s.Device == nil {
		return ""
	}
	return s.Device.ID + "\x00" + s.Device.Name
}

func finished(s *core.PlaybackState) bool {
	if !s.HasTrack() || s.Track.Duration == 0 {
		return false
	}
	return float64(s.Progress) >= float64(s.Track.Duration)*completeRatio
}
