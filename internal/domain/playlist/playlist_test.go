package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osa030/cantio/internal/domain/track"
)

func TestPlaylist_TotalDuration(t *testing.T) {
	tests := []struct {
		name     string
		tracks   []track.Track
		expected int64
	}{
		{
			name:     "empty playlist",
			tracks:   []track.Track{},
			expected: 0,
		},
		{
			name: "unknown durations count as zero",
			tracks: []track.Track{
				{VideoID: "track-1", Duration: 180},
				{VideoID: "track-2"},
			},
			expected: 180,
		},
		{
			name: "multiple tracks",
			tracks: []track.Track{
				{VideoID: "track-1", Duration: 120},
				{VideoID: "track-2", Duration: 210},
				{VideoID: "track-3", Duration: 240},
			},
			expected: 570,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Playlist{Tracks: tt.tracks}
			assert.Equal(t, tt.expected, p.TotalDuration())
		})
	}
}

func TestPlaylist_Clone(t *testing.T) {
	p := Playlist{
		ID:     "pl_1",
		Title:  "Road Trip",
		Tracks: []track.Track{{VideoID: "a"}},
	}

	c := p.Clone()
	c.Tracks[0].VideoID = "b"
	c.Title = "Changed"

	assert.Equal(t, "a", p.Tracks[0].VideoID)
	assert.Equal(t, "Road Trip", p.Title)
	assert.True(t, p.Has("a"))
	assert.False(t, p.Has("b"))
}
