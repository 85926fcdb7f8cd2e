package watch

import (
	"bytes"
	"fmt"
	"text/template"
)

// Formatter renders events as single lines.
type Formatter struct {
	emoji     bool
	timestamp bool
	tmpl      *template.Template
}

// FormatOption configures a Formatter.
type FormatOption func(*Formatter)

// WithEmoji toggles the leading emoji.
func WithEmoji(enabled bool) FormatOption {
	return func(f *Formatter) { f.emoji = enabled }
}

// WithTimestamp toggles the leading time of day.
func WithTimestamp(enabled bool) FormatOption {
	return func(f *Formatter) { f.timestamp = enabled }
}

// NewFormatter creates a formatter. A non-empty tmpl is a text/template
// executed against Fields; a template that fails to parse is an error.
func NewFormatter(tmpl string, opts ...FormatOption) (*Formatter, error) {
	f := &Formatter{emoji: true}
	for _, opt := range opts {
		opt(f)
	}
	if tmpl != "" {
		t, err := template.New("watch").Parse(tmpl)
		if err != nil {
			return nil, fmt.Errorf("invalid format template: %w", err)
		}
		f.tmpl = t
	}
	return f, nil
}

// Fields are the values available to a format template.
type Fields struct {
	Kind   string
	Emoji  string
	Time   string
	Title  string
	Artist string
	Album  string
	Device string
	Volume int
}

// FieldsOf extracts template fields from an event. Track fields describe
// the track the event is about: the finished or skipped one for completions
// and skips, the current one otherwise.
func FieldsOf(e Event) Fields {
	f := Fields{
		Kind:  string(e.Kind),
		Emoji: emoji(e.Kind),
		Time:  e.At.Format("15:04:05"),
	}

	subject := e.Current
	if e.Kind == KindComplete || e.Kind == KindSkip {
		subject = e.Previous
	}
	if subject.HasTrack() {
		f.Title = subject.Track.Title
		f.Artist = subject.Track.Artist
		f.Album = subject.Track.Album
	}
	if e.Current != nil {
		f.Volume = e.Current.Volume
		if e.Current.Device != nil {
			f.Device = e.Current.Device.Name
		}
	}
	return f
}

// Format renders e.
func (f *Formatter) Format(e Event) string {
	fields := FieldsOf(e)

	if f.tmpl != nil {
		var buf bytes.Buffer
		if err := f.tmpl.Execute(&buf, fields); err == nil {
			return buf.String()
		}
	}

	line := describe(e.Kind, fields)
	if f.emoji {
		line = fields.Emoji + " " + line
	}
	if f.timestamp {
		line = fields.Time + " " + line
	}
	return line
}

func describe(k Kind, f Fields) string {
	track := f.Title
	if f.Artist != "" {
		track = f.Artist + " - " + f.Title
	}

	switch k {
	case KindTrack:
		if track != "" {
			return "Now playing: " + track
		}
		return "Stopped"
	case KindComplete:
		return "Finished: " + track
	case KindSkip:
		return "Skipped: " + track
	case KindPause:
		return "Paused"
	case KindResume:
		return "Resumed"
	case KindVolume:
		return fmt.Sprintf("Volume: %d%%", f.Volume)
	case KindDevice:
		if f.Device != "" {
			return "Device: " + f.Device
		}
		return "Device changed"
	}
	return string(k)
}

func emoji(k Kind) string {
	switch k {
	case KindTrack:
		return "🎵"
	case KindComplete:
		return "✅"
	case KindSkip:
		return "⏭"
	case KindPause:
		return "⏸"
	case KindResume:
		return "▶"
	case KindVolume:
		return "🔊"
	case KindDevice:
		return "📱"
	}
	return "•"
}
