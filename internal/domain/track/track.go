// Package track provides the Track domain entity.
package track

import "strings"

// WatchURLBase is the canonical watch URL prefix for a video ID.
const WatchURLBase = "https://www.youtube.com/watch?v="

// Track represents a playable YouTube video.
// Tracks are immutable values; two tracks are the same track when their
// VideoID matches.
type Track struct {
	VideoID   string `json:"videoId" validate:"required"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Duration  int    `json:"duration"` // seconds, 0 when unknown
	Thumbnail string `json:"thumbnail"`
}

// Same reports whether t and other refer to the same video.
func (t Track) Same(other Track) bool {
	return t.VideoID == other.VideoID
}

// WatchURL returns the URL used to load the track into a player.
func (t Track) WatchURL() string {
	return WatchURLBase + t.VideoID
}

// DisplayArtist returns the artist name or a placeholder when it is empty.
func (t Track) DisplayArtist() string {
	if strings.TrimSpace(t.Artist) == "" {
		return "Unknown Artist"
	}
	return t.Artist
}

// IndexOf returns the index of the first track with the given video ID, or -1.
func IndexOf(tracks []Track, videoID string) int {
	for i, t := range tracks {
		if t.VideoID == videoID {
			return i
		}
	}
	return -1
}

// Contains reports whether tracks holds a track with the given video ID.
func Contains(tracks []Track, videoID string) bool {
	return IndexOf(tracks, videoID) >= 0
}

// Clone returns a copy of tracks that shares no backing array with the input.
// A nil input yields an empty, non-nil slice.
func Clone(tracks []Track) []Track {
	out := make([]Track, len(tracks))
	copy(out, tracks)
	return out
}
