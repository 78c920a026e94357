package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_Same(t *testing.T) {
	tests := []struct {
		name     string
		a        Track
		b        Track
		expected bool
	}{
		{
			name:     "same id different metadata",
			a:        Track{VideoID: "abc", Title: "Song"},
			b:        Track{VideoID: "abc", Title: "Song (Live)"},
			expected: true,
		},
		{
			name:     "different id",
			a:        Track{VideoID: "abc"},
			b:        Track{VideoID: "def"},
			expected: false,
		},
		{
			name:     "both empty",
			a:        Track{},
			b:        Track{},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Same(tt.b))
		})
	}
}

func TestTrack_WatchURL(t *testing.T) {
	tr := Track{VideoID: "dQw4w9WgXcQ", Duration: 213}

	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", tr.WatchURL())
}

func TestTrack_DisplayArtist(t *testing.T) {
	assert.Equal(t, "Unknown Artist", Track{}.DisplayArtist())
	assert.Equal(t, "Unknown Artist", Track{Artist: "  "}.DisplayArtist())
	assert.Equal(t, "Queen", Track{Artist: "Queen"}.DisplayArtist())
}

func TestIndexOfAndContains(t *testing.T) {
	tracks := []Track{{VideoID: "a"}, {VideoID: "b"}, {VideoID: "a"}}

	assert.Equal(t, 0, IndexOf(tracks, "a"))
	assert.Equal(t, 1, IndexOf(tracks, "b"))
	assert.Equal(t, -1, IndexOf(tracks, "z"))
	assert.True(t, Contains(tracks, "b"))
	assert.False(t, Contains(nil, "b"))
}

func TestClone(t *testing.T) {
	src := []Track{{VideoID: "a"}, {VideoID: "b"}}
	dst := Clone(src)
	dst[0].VideoID = "changed"

	assert.Equal(t, "a", src[0].VideoID)
	assert.NotNil(t, Clone(nil))
	assert.Empty(t, Clone(nil))
}
