package cache

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// LyricsTTL is how long a cached lyrics payload is served.
const LyricsTTL = 7 * 24 * time.Hour

// LyricsKey normalizes a track into its "artist - title" cache key.
func LyricsKey(title, artist string) string {
	return strings.ToLower(artist) + " - " + strings.ToLower(title)
}

// GetLyrics returns the cached payload for the track. Expired entries are
// removed and reported as missing.
func (m *Manager) GetLyrics(ctx context.Context, title, artist string) (json.RawMessage, bool) {
	key := LyricsKey(title, artist)

	var (
		out json.RawMessage
		ok  bool
	)
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		entry, found := c.Lyrics[key]
		if !found {
			return false, nil
		}
		if m.nowMillis()-entry.Timestamp > LyricsTTL.Milliseconds() {
			delete(c.Lyrics, key)
			return true, nil
		}
		out, ok = append(json.RawMessage(nil), entry.Data...), true
		return false, nil
	})
	return out, ok
}

// SetLyrics caches a payload for the track. Past MaxLyrics entries the
// oldest fetches are evicted.
func (m *Manager) SetLyrics(ctx context.Context, title, artist string, data json.RawMessage) {
	key := LyricsKey(title, artist)
	payload := append(json.RawMessage(nil), data...)

	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		c.Lyrics[key] = LyricsEntry{
			TrackKey:  key,
			Data:      payload,
			Timestamp: m.nowMillis(),
		}
		trimLyrics(c.Lyrics)
		return true, nil
	})
}

// trimLyrics evicts the oldest entries beyond MaxLyrics.
func trimLyrics(lyrics map[string]LyricsEntry) {
	if len(lyrics) <= MaxLyrics {
		return
	}
	keys := lo.Keys(lyrics)
	sort.Slice(keys, func(i, j int) bool {
		a, b := lyrics[keys[i]], lyrics[keys[j]]
		if a.Timestamp != b.Timestamp {
			return a.Timestamp < b.Timestamp
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys[:len(keys)-MaxLyrics] {
		delete(lyrics, k)
	}
}
