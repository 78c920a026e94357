package playback

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_MediaSession(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StatePlaying, "playing"},
		{StateLoading, "playing"},
		{StatePaused, "paused"},
		{StateIdle, "none"},
		{StateError, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.MediaSession())
			assert.Equal(t, tt.state, ParseState(tt.state.String()))
		})
	}
}

func TestState_StringUnknown(t *testing.T) {
	assert.Equal(t, "unknown", State(99).String())
	assert.Equal(t, StateIdle, ParseState("bogus"))
	assert.Equal(t, "queue_changed", EventQueueChanged.String())
}

func TestState_JSONByName(t *testing.T) {
	data, err := json.Marshal(Snapshot{State: StatePaused})
	assert.NoError(t, err)
	assert.Contains(t, string(data), `"state":"paused"`)

	var s Snapshot
	assert.NoError(t, json.Unmarshal([]byte(`{"state":"playing"}`), &s))
	assert.Equal(t, StatePlaying, s.State)
}
