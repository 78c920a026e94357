// Package playlist provides the Playlist domain entity.
package playlist

import "github.com/osa030/cantio/internal/domain/track"

// Playlist represents a user-created playlist.
type Playlist struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Tracks    []track.Track `json:"tracks"`
	CreatedAt int64         `json:"createdAt"` // epoch millis
}

// TotalDuration returns the total duration of all tracks in seconds.
func (p *Playlist) TotalDuration() int64 {
	var total int64
	for _, t := range p.Tracks {
		total += int64(t.Duration)
	}
	return total
}

// Has reports whether the playlist already holds the video.
func (p *Playlist) Has(videoID string) bool {
	return track.Contains(p.Tracks, videoID)
}

// Clone returns a deep copy of the playlist.
func (p Playlist) Clone() Playlist {
	p.Tracks = track.Clone(p.Tracks)
	return p
}
