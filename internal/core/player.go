package core

import "context"

// Player defines the interface for music playback control. It is implemented
// by the Spotify Connect player and by the local desktop player.
type Player interface {
	// Playback control
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Next(ctx context.Context) error
	Prev(ctx context.Context) error
	Seek(ctx context.Context, positionMs int) error

	// Volume control
	Volume(ctx context.Context, percent int) error

	// State queries
	GetState(ctx context.Context) (*PlaybackState, error)
}
