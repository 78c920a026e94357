package cache

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/osa030/cantio/internal/domain/track"
)

// AddToQueue appends t to the forward queue.
func (m *Manager) AddToQueue(ctx context.Context, t track.Track) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		c.Queue = append(c.Queue, t)
		return true, nil
	})
}

// PrependToQueue puts t at the head of the forward queue.
func (m *Manager) PrependToQueue(ctx context.Context, t track.Track) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		c.Queue = append([]track.Track{t}, c.Queue...)
		return true, nil
	})
}

// RemoveFromQueue removes the entry at index. An out-of-range index is a
// silent no-op.
func (m *Manager) RemoveFromQueue(ctx context.Context, index int) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		if index < 0 || index >= len(c.Queue) {
			return false, nil
		}
		c.Queue = append(c.Queue[:index:index], c.Queue[index+1:]...)
		return true, nil
	})
}

// RemoveFirstFromQueue removes the first entry with the video ID and
// reports whether one was removed.
func (m *Manager) RemoveFirstFromQueue(ctx context.Context, videoID string) bool {
	var removed bool
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		i := track.IndexOf(c.Queue, videoID)
		if i < 0 {
			return false, nil
		}
		c.Queue = append(c.Queue[:i:i], c.Queue[i+1:]...)
		removed = true
		return true, nil
	})
	return removed
}

// ClearQueue empties the forward queue.
func (m *Manager) ClearQueue(ctx context.Context) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		if len(c.Queue) == 0 {
			return false, nil
		}
		c.Queue = []track.Track{}
		return true, nil
	})
}

// ReorderQueue moves the entry at from so that it ends up at to. Callers
// are expected to pass valid indices; ErrInvalidIndex is returned
// otherwise and the queue is left untouched.
func (m *Manager) ReorderQueue(ctx context.Context, from, to int) error {
	return m.mutate(ctx, func(c *GuestCache) (bool, error) {
		n := len(c.Queue)
		if from < 0 || from >= n || to < 0 || to >= n {
			return false, errors.Wrapf(ErrInvalidIndex, "reorder %d -> %d (len %d)", from, to, n)
		}
		if from == to {
			return false, nil
		}
		item := c.Queue[from]
		rest := append(c.Queue[:from:from], c.Queue[from+1:]...)
		q := make([]track.Track, 0, n)
		q = append(q, rest[:to]...)
		q = append(q, item)
		q = append(q, rest[to:]...)
		c.Queue = q
		return true, nil
	})
}

// Queue returns a copy of the forward queue.
func (m *Manager) Queue() []track.Track {
	var out []track.Track
	m.read(func(c *GuestCache) { out = track.Clone(c.Queue) })
	return out
}

// SetLastPlayed records the most recently started track.
func (m *Manager) SetLastPlayed(ctx context.Context, t track.Track) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		c.LastPlayed = &t
		return true, nil
	})
}

// LastPlayed returns the last started track.
func (m *Manager) LastPlayed() (track.Track, bool) {
	var (
		out track.Track
		ok  bool
	)
	m.read(func(c *GuestCache) {
		if c.LastPlayed != nil {
			out, ok = *c.LastPlayed, true
		}
	})
	return out, ok
}

// PushToReverseQueue pushes t onto the history stack. Pushing the track
// already on top is a no-op. Past MaxReverseQueue entries the bottom
// (oldest) entry is evicted.
func (m *Manager) PushToReverseQueue(ctx context.Context, t track.Track) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		if n := len(c.ReverseQueue); n > 0 && c.ReverseQueue[n-1].VideoID == t.VideoID {
			return false, nil
		}
		c.ReverseQueue = append(c.ReverseQueue, t)
		if n := len(c.ReverseQueue); n > MaxReverseQueue {
			c.ReverseQueue = append([]track.Track{}, c.ReverseQueue[n-MaxReverseQueue:]...)
		}
		return true, nil
	})
}

// PopFromReverseQueue removes and returns the top of the history stack.
func (m *Manager) PopFromReverseQueue(ctx context.Context) (track.Track, bool) {
	var (
		out track.Track
		ok  bool
	)
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		n := len(c.ReverseQueue)
		if n == 0 {
			return false, nil
		}
		out, ok = c.ReverseQueue[n-1], true
		c.ReverseQueue = c.ReverseQueue[:n-1]
		return true, nil
	})
	return out, ok
}

// ReverseQueue returns a copy of the history stack, bottom first.
func (m *Manager) ReverseQueue() []track.Track {
	var out []track.Track
	m.read(func(c *GuestCache) { out = track.Clone(c.ReverseQueue) })
	return out
}

// ClearReverseQueue empties the history stack.
func (m *Manager) ClearReverseQueue(ctx context.Context) {
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		c.ReverseQueue = []track.Track{}
		return true, nil
	})
}

// SetReverseQueue replaces the history stack. newestFirst lists tracks
// from the most recent play backwards, as remote history is returned; the
// first entry becomes the top of the stack. At most MaxReverseQueue of the
// most recent entries are kept.
func (m *Manager) SetReverseQueue(ctx context.Context, newestFirst []track.Track) {
	if len(newestFirst) > MaxReverseQueue {
		newestFirst = newestFirst[:MaxReverseQueue]
	}
	stack := make([]track.Track, 0, len(newestFirst))
	for i := len(newestFirst) - 1; i >= 0; i-- {
		t := newestFirst[i]
		if n := len(stack); n > 0 && stack[n-1].VideoID == t.VideoID {
			continue
		}
		stack = append(stack, t)
	}
	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		c.ReverseQueue = stack
		return true, nil
	})
}
