package cache

import (
	"context"

	"github.com/samber/lo"

	"github.com/osa030/cantio/internal/domain/track"
)

// LikeSong adds t to the liked set. Liking a liked track is a no-op.
func (m *Manager) LikeSong(ctx context.Context, t track.Track) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		if track.Contains(c.Liked, t.VideoID) {
			return false, nil
		}
		c.Liked = append(c.Liked, t)
		return true, nil
	})
}

// UnlikeSong removes the video from the liked set. Unliking a track that is
// not liked is a no-op.
func (m *Manager) UnlikeSong(ctx context.Context, videoID string) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		if !track.Contains(c.Liked, videoID) {
			return false, nil
		}
		c.Liked = lo.Reject(c.Liked, func(t track.Track, _ int) bool {
			return t.VideoID == videoID
		})
		return true, nil
	})
}

// SetLiked replaces the liked set, dropping duplicate IDs.
func (m *Manager) SetLiked(ctx context.Context, tracks []track.Track) {
	liked := lo.UniqBy(track.Clone(tracks), func(t track.Track) string {
		return t.VideoID
	})
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		c.Liked = liked
		return true, nil
	})
}

// IsLiked reports whether the video is liked.
func (m *Manager) IsLiked(videoID string) bool {
	var liked bool
	m.read(func(c *GuestCache) { liked = track.Contains(c.Liked, videoID) })
	return liked
}

// LikedSongs returns a copy of the liked set.
func (m *Manager) LikedSongs() []track.Track {
	var out []track.Track
	m.read(func(c *GuestCache) { out = track.Clone(c.Liked) })
	return out
}
