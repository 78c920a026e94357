package player

import "fmt"

// EventType represents a normalized player event type.
type EventType int

const (
	EventReady EventType = iota
	EventPlaying
	EventPaused
	EventBuffering
	EventEnded
	EventError
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventReady:
		return "ready"
	case EventPlaying:
		return "playing"
	case EventPaused:
		return "paused"
	case EventBuffering:
		return "buffering"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is a tagged union: Code is meaningful only for EventError.
type Event struct {
	Type EventType
	Code ErrorCode
}

// Ready returns a ready event.
func Ready() Event { return Event{Type: EventReady} }

// Playing returns a playing event.
func Playing() Event { return Event{Type: EventPlaying} }

// Paused returns a paused event.
func Paused() Event { return Event{Type: EventPaused} }

// Buffering returns a buffering event.
func Buffering() Event { return Event{Type: EventBuffering} }

// Ended returns an ended event.
func Ended() Event { return Event{Type: EventEnded} }

// Failed returns an error event carrying code.
func Failed(code ErrorCode) Event { return Event{Type: EventError, Code: code} }

func (e Event) String() string {
	if e.Type == EventError {
		return fmt.Sprintf("error(%d)", int(e.Code))
	}
	return e.Type.String()
}

// ErrorCode is a player error code. Values follow the embedded player's
// numbering so codes from any adapter read the same.
type ErrorCode int

const (
	CodeUnknown          ErrorCode = 0
	CodeInvalidParameter ErrorCode = 2
	CodeHTML5            ErrorCode = 5
	CodeNotFound         ErrorCode = 100
	CodeNotEmbeddable    ErrorCode = 101
	CodeNotEmbeddable2   ErrorCode = 150
	// CodeLoadFailed is raised by adapters when the media could not be
	// opened for reasons outside the embedded numbering (network, decoder).
	CodeLoadFailed ErrorCode = 1000
)

// Transient reports whether the same track is worth retrying after this
// error. Restricted or missing videos are fatal.
func (c ErrorCode) Transient() bool {
	switch c {
	case CodeHTML5, CodeLoadFailed, CodeUnknown:
		return true
	default:
		return false
	}
}

// Message returns a user-facing description.
func (c ErrorCode) Message() string {
	switch c {
	case CodeInvalidParameter:
		return "invalid video id"
	case CodeHTML5:
		return "playback error in the player"
	case CodeNotFound:
		return "video not found or removed"
	case CodeNotEmbeddable, CodeNotEmbeddable2:
		return "video cannot be played here"
	case CodeLoadFailed:
		return "video failed to load"
	default:
		return "unknown playback error"
	}
}
