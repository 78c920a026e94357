// Package cache owns the guest-mode library aggregate and keeps it in the
// durable store.
package cache

import (
	"encoding/json"

	"github.com/osa030/cantio/internal/domain/playlist"
	"github.com/osa030/cantio/internal/domain/track"
)

// CurrentVersion is the schema version written with every save. A stored
// aggregate with any other version is discarded on Init.
const CurrentVersion = 1

// Bounds on the growing collections.
const (
	MaxReverseQueue = 100
	MaxDiscovered   = 50
	MaxPlayedIDs    = 500
	MaxLyrics       = 100
)

// LyricsEntry is a cached lyrics payload. Data is opaque to the cache.
type LyricsEntry struct {
	TrackKey  string          `json:"trackKey"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"` // epoch millis of the fetch
}

// GuestCache is the persisted aggregate of an unauthenticated session.
type GuestCache struct {
	Playlists        []playlist.Playlist    `json:"playlists"`
	Liked            []track.Track          `json:"liked"`
	Queue            []track.Track          `json:"queue"`
	ReverseQueue     []track.Track          `json:"reverseQueue"` // bottom first, top last
	LastPlayed       *track.Track           `json:"lastPlayed"`
	Lyrics           map[string]LyricsEntry `json:"lyrics"`
	DiscoveredTracks []track.Track          `json:"discoveredTracks"` // newest first
	PlayedVideoIDs   []string               `json:"playedVideoIds"`   // oldest first
	Version          int                    `json:"version"`
}

// Default returns an empty aggregate at the current version.
func Default() GuestCache {
	return GuestCache{
		Playlists:        []playlist.Playlist{},
		Liked:            []track.Track{},
		Queue:            []track.Track{},
		ReverseQueue:     []track.Track{},
		Lyrics:           map[string]LyricsEntry{},
		DiscoveredTracks: []track.Track{},
		PlayedVideoIDs:   []string{},
		Version:          CurrentVersion,
	}
}

// Clone returns a deep copy of g.
func (g GuestCache) Clone() GuestCache {
	out := g
	out.Playlists = make([]playlist.Playlist, len(g.Playlists))
	for i, p := range g.Playlists {
		out.Playlists[i] = p.Clone()
	}
	out.Liked = track.Clone(g.Liked)
	out.Queue = track.Clone(g.Queue)
	out.ReverseQueue = track.Clone(g.ReverseQueue)
	out.DiscoveredTracks = track.Clone(g.DiscoveredTracks)
	out.PlayedVideoIDs = append([]string{}, g.PlayedVideoIDs...)
	if g.LastPlayed != nil {
		lp := *g.LastPlayed
		out.LastPlayed = &lp
	}
	out.Lyrics = make(map[string]LyricsEntry, len(g.Lyrics))
	for k, v := range g.Lyrics {
		v.Data = append(json.RawMessage(nil), v.Data...)
		out.Lyrics[k] = v
	}
	return out
}

// normalize fills collections missing from older saves so the aggregate is
// never observed with nil slices or maps.
func (g *GuestCache) normalize() {
	if g.Playlists == nil {
		g.Playlists = []playlist.Playlist{}
	}
	for i := range g.Playlists {
		if g.Playlists[i].Tracks == nil {
			g.Playlists[i].Tracks = []track.Track{}
		}
	}
	if g.Liked == nil {
		g.Liked = []track.Track{}
	}
	if g.Queue == nil {
		g.Queue = []track.Track{}
	}
	if g.ReverseQueue == nil {
		g.ReverseQueue = []track.Track{}
	}
	if g.Lyrics == nil {
		g.Lyrics = map[string]LyricsEntry{}
	}
	if g.DiscoveredTracks == nil {
		g.DiscoveredTracks = []track.Track{}
	}
	if g.PlayedVideoIDs == nil {
		g.PlayedVideoIDs = []string{}
	}
}
