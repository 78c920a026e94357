// Package playback provides the playback state machine driving the external
// player, the forward queue and the play history.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // Nothing loaded
	StateLoading              // Load issued, waiting for the player
	StatePlaying              // Track is playing
	StatePaused               // Track is paused
	StateError                // Last load or playback failed
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateLoading:
		return "loading"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// MediaSession maps the state onto the OS media session states
// ("playing", "paused" or "none").
func (s State) MediaSession() string {
	switch s {
	case StatePlaying, StateLoading:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "none"
	}
}

// ParseState is the inverse of State.String. Unknown names map to idle.
func ParseState(s string) State {
	switch s {
	case "loading":
		return StateLoading
	case "playing":
		return StatePlaying
	case "paused":
		return StatePaused
	case "error":
		return StateError
	default:
		return StateIdle
	}
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	*s = ParseState(string(text))
	return nil
}
