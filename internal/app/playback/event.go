package playback

import "github.com/osa030/cantio/internal/domain/track"

// EventType represents a playback event type.
type EventType int

const (
	EventStateChanged  EventType = iota // Playback state changed
	EventTrackChanged                   // A new track was loaded or the track was cleared
	EventProgress                       // Position or duration moved
	EventQueueChanged                   // Forward queue was modified
	EventVolumeChanged                  // Volume changed
	EventError                          // Playback failed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventStateChanged:
		return "state_changed"
	case EventTrackChanged:
		return "track_changed"
	case EventProgress:
		return "progress"
	case EventQueueChanged:
		return "queue_changed"
	case EventVolumeChanged:
		return "volume_changed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of the session.
type Snapshot struct {
	State    State         `json:"state"`
	Track    *track.Track  `json:"track,omitempty"`
	Progress float64       `json:"progress"`
	Duration float64       `json:"duration"`
	Volume   float64       `json:"volume"`
	Error    string        `json:"error,omitempty"`
	Visible  bool          `json:"visible"`
	Ready    bool          `json:"ready"`
	Queue    []track.Track `json:"queue,omitempty"` // filled by Controller.Snapshot only
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	Snapshot Snapshot
}
