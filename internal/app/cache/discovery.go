package cache

import (
	"context"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"

	"github.com/osa030/cantio/internal/domain/track"
)

// MarkTrackAsPlayed records the video as played and drops it from the
// discovered tracks.
func (m *Manager) MarkTrackAsPlayed(ctx context.Context, videoID string) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		changed := false
		if !lo.Contains(c.PlayedVideoIDs, videoID) {
			c.PlayedVideoIDs = append(c.PlayedVideoIDs, videoID)
			if n := len(c.PlayedVideoIDs); n > MaxPlayedIDs {
				c.PlayedVideoIDs = append([]string{}, c.PlayedVideoIDs[n-MaxPlayedIDs:]...)
			}
			changed = true
		}
		if track.Contains(c.DiscoveredTracks, videoID) {
			c.DiscoveredTracks = lo.Reject(c.DiscoveredTracks, func(t track.Track, _ int) bool {
				return t.VideoID == videoID
			})
			changed = true
		}
		return changed, nil
	})
}

// AddDiscoveredTracks prepends tracks that were neither played nor already
// discovered, keeping the newest MaxDiscovered.
func (m *Manager) AddDiscoveredTracks(ctx context.Context, tracks []track.Track) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		seen := make(map[string]struct{}, len(c.PlayedVideoIDs)+len(c.DiscoveredTracks))
		for _, id := range c.PlayedVideoIDs {
			seen[id] = struct{}{}
		}
		for _, t := range c.DiscoveredTracks {
			seen[t.VideoID] = struct{}{}
		}

		fresh := make([]track.Track, 0, len(tracks))
		for _, t := range tracks {
			if _, ok := seen[t.VideoID]; ok || t.VideoID == "" {
				continue
			}
			seen[t.VideoID] = struct{}{}
			fresh = append(fresh, t)
		}
		if len(fresh) == 0 {
			return false, nil
		}

		merged := append(fresh, c.DiscoveredTracks...)
		if len(merged) > MaxDiscovered {
			merged = merged[:MaxDiscovered]
		}
		c.DiscoveredTracks = merged
		return true, nil
	})
}

// DiscoveredTracks returns discovered tracks that have not been played since.
func (m *Manager) DiscoveredTracks() []track.Track {
	var out []track.Track
	m.read(func(c *GuestCache) {
		played := lo.SliceToMap(c.PlayedVideoIDs, func(id string) (string, struct{}) {
			return id, struct{}{}
		})
		out = lo.Filter(c.DiscoveredTracks, func(t track.Track, _ int) bool {
			_, ok := played[t.VideoID]
			return !ok
		})
	})
	return track.Clone(out)
}

// PlayedVideoIDs returns the played IDs, oldest first.
func (m *Manager) PlayedVideoIDs() []string {
	var out []string
	m.read(func(c *GuestCache) { out = append([]string{}, c.PlayedVideoIDs...) })
	return out
}

// SearchLocal fuzzy-matches query against every track the cache knows
// about: liked, playlists, queue, history and discovered. It serves as the
// offline stand-in for the search endpoint. Results are ordered by match
// distance and deduplicated by video ID.
func (m *Manager) SearchLocal(query string, limit int) []track.Track {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return []track.Track{}
	}

	var pool []track.Track
	m.read(func(c *GuestCache) {
		pool = append(pool, c.Liked...)
		for _, p := range c.Playlists {
			pool = append(pool, p.Tracks...)
		}
		pool = append(pool, c.Queue...)
		pool = append(pool, c.ReverseQueue...)
		pool = append(pool, c.DiscoveredTracks...)
	})
	pool = lo.UniqBy(pool, func(t track.Track) string { return t.VideoID })

	targets := lo.Map(pool, func(t track.Track, _ int) string {
		return strings.ToLower(t.Artist + " - " + t.Title)
	})
	ranks := fuzzy.RankFindFold(query, targets)
	sort.Stable(ranks)

	out := make([]track.Track, 0, len(ranks))
	for _, r := range ranks {
		out = append(out, pool[r.OriginalIndex])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
