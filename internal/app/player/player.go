// Package player defines the contract between the playback controller and
// the external media player.
package player

import (
	"context"

	"github.com/cockroachdb/errors"
)

// Errors
var (
	ErrNotReady = errors.New("player not ready")
	ErrClosed   = errors.New("player closed")
)

// State is the state reported by the underlying player.
type State int

const (
	StateUnstarted State = iota
	StateEnded
	StatePlaying
	StatePaused
	StateBuffering
	StateCued
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateUnstarted:
		return "unstarted"
	case StateEnded:
		return "ended"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateBuffering:
		return "buffering"
	case StateCued:
		return "cued"
	default:
		return "unknown"
	}
}

// Adapter is a thin facade over an opaque, event-driven media player.
//
// The underlying player may pause itself when the host loses visibility;
// such a pause is reported exactly like a user pause. Telling the two apart
// is left to the caller.
type Adapter interface {
	// Start brings the player up. Readiness is signalled by an EventReady.
	Start(ctx context.Context) error
	// Events returns the normalized event stream. It is closed by Close.
	Events() <-chan Event

	Load(ctx context.Context, videoID string, startSeconds float64) error
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Stop(ctx context.Context) error
	Seek(ctx context.Context, seconds float64) error
	// SetVolume takes a level in [0,1].
	SetVolume(ctx context.Context, level float64) error

	CurrentTime(ctx context.Context) (float64, error)
	Duration(ctx context.Context) (float64, error)
	PlayerState(ctx context.Context) (State, error)

	Close() error
}
