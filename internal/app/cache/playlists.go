package cache

import (
	"context"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/osa030/cantio/internal/domain/playlist"
	"github.com/osa030/cantio/internal/domain/track"
)

// newPlaylistID returns "pl_<epochMillis>_<9 random chars>".
func newPlaylistID(millis int64) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return "pl_" + strconv.FormatInt(millis, 10) + "_" + suffix
}

func findPlaylist(c *GuestCache, id string) (*playlist.Playlist, error) {
	for i := range c.Playlists {
		if c.Playlists[i].ID == id {
			return &c.Playlists[i], nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "playlist %s", id)
}

// CreatePlaylist appends a new empty playlist.
func (m *Manager) CreatePlaylist(ctx context.Context, title string) (playlist.Playlist, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return playlist.Playlist{}, ErrInvalidTitle
	}

	var created playlist.Playlist
	err := m.mutate(ctx, func(c *GuestCache) (bool, error) {
		now := m.nowMillis()
		created = playlist.Playlist{
			ID:        newPlaylistID(now),
			Title:     title,
			Tracks:    []track.Track{},
			CreatedAt: now,
		}
		c.Playlists = append(c.Playlists, created)
		return true, nil
	})
	return created.Clone(), err
}

// AddToPlaylist inserts t at the front of the playlist. Adding a track the
// playlist already holds is a no-op.
func (m *Manager) AddToPlaylist(ctx context.Context, playlistID string, t track.Track) error {
	return m.mutate(ctx, func(c *GuestCache) (bool, error) {
		p, err := findPlaylist(c, playlistID)
		if err != nil {
			return false, err
		}
		if p.Has(t.VideoID) {
			return false, nil
		}
		p.Tracks = append([]track.Track{t}, p.Tracks...)
		return true, nil
	})
}

// RemoveFromPlaylist removes the video from the playlist.
func (m *Manager) RemoveFromPlaylist(ctx context.Context, playlistID, videoID string) error {
	return m.mutate(ctx, func(c *GuestCache) (bool, error) {
		p, err := findPlaylist(c, playlistID)
		if err != nil {
			return false, err
		}
		p.Tracks = lo.Reject(p.Tracks, func(t track.Track, _ int) bool {
			return t.VideoID == videoID
		})
		return true, nil
	})
}

// DeletePlaylist removes the playlist.
func (m *Manager) DeletePlaylist(ctx context.Context, playlistID string) error {
	return m.mutate(ctx, func(c *GuestCache) (bool, error) {
		if _, err := findPlaylist(c, playlistID); err != nil {
			return false, err
		}
		c.Playlists = lo.Reject(c.Playlists, func(p playlist.Playlist, _ int) bool {
			return p.ID == playlistID
		})
		return true, nil
	})
}

// RenamePlaylist changes the playlist title.
func (m *Manager) RenamePlaylist(ctx context.Context, playlistID, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return ErrInvalidTitle
	}
	return m.mutate(ctx, func(c *GuestCache) (bool, error) {
		p, err := findPlaylist(c, playlistID)
		if err != nil {
			return false, err
		}
		p.Title = title
		return true, nil
	})
}

// Playlists returns copies of all playlists in creation order.
func (m *Manager) Playlists() []playlist.Playlist {
	var out []playlist.Playlist
	m.read(func(c *GuestCache) {
		out = lo.Map(c.Playlists, func(p playlist.Playlist, _ int) playlist.Playlist {
			return p.Clone()
		})
	})
	return out
}

// Playlist returns a copy of one playlist.
func (m *Manager) Playlist(playlistID string) (playlist.Playlist, error) {
	var (
		out playlist.Playlist
		err error
	)
	m.read(func(c *GuestCache) {
		var p *playlist.Playlist
		if p, err = findPlaylist(c, playlistID); err == nil {
			out = p.Clone()
		}
	})
	return out, err
}
