// Package remotesync mirrors likes and play history between the guest
// cache and the remote API of an authenticated session.
package remotesync

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/osa030/cantio/internal/app/optimistic"
	"github.com/osa030/cantio/internal/app/task"
	"github.com/osa030/cantio/internal/domain/track"
)

// ErrSyncFailed marks a remote failure surfaced to the caller.
var ErrSyncFailed = errors.New("remote sync failed")

// Remote is the remote API. *api.Client implements it.
type Remote interface {
	Like(ctx context.Context, t track.Track) error
	Unlike(ctx context.Context, videoID string) error
	Likes(ctx context.Context) ([]track.Track, error)
	RecordPlay(ctx context.Context, t track.Track) error
	History(ctx context.Context, limit int) ([]track.Track, error)
	Search(ctx context.Context, query string, limit int) ([]track.Track, error)
}

// Library is the local side of the bridge. *cache.Manager implements it.
type Library interface {
	LikeSong(ctx context.Context, t track.Track)
	UnlikeSong(ctx context.Context, videoID string)
	LikedSongs() []track.Track
	SetLiked(ctx context.Context, tracks []track.Track)
	SetReverseQueue(ctx context.Context, newestFirst []track.Track)
	AddDiscoveredTracks(ctx context.Context, tracks []track.Track)
	SearchLocal(query string, limit int) []track.Track
}

// Config holds bridge configuration.
type Config struct {
	HistoryLimit int  // Entries pulled by Sync
	SearchLimit  int  // Default search result count
	Optimistic   bool // Apply likes locally before the remote call
}

// Bridge routes like, unlike, history and search through the remote API
// when one is configured. Without a remote every operation is local.
type Bridge struct {
	// likeMu serialises every read-modify-write of the liked set, so a
	// rollback never erases a like committed by a concurrent call.
	likeMu sync.Mutex

	remote  Remote
	library Library
	tasks   *task.Group
	config  Config
}

// New creates a bridge. remote may be nil for a guest session.
func New(remote Remote, library Library, tasks *task.Group, cfg Config) *Bridge {
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 50
	}
	if cfg.SearchLimit <= 0 {
		cfg.SearchLimit = 20
	}
	return &Bridge{
		remote:  remote,
		library: library,
		tasks:   tasks,
		config:  cfg,
	}
}

// Authenticated reports whether a remote API is attached.
func (b *Bridge) Authenticated() bool {
	return b.remote != nil
}

// Like likes t. In an authenticated session the remote call decides: a
// failed call leaves the local liked set unchanged and returns an error
// marked with ErrSyncFailed.
func (b *Bridge) Like(ctx context.Context, t track.Track) error {
	b.likeMu.Lock()
	defer b.likeMu.Unlock()

	if b.remote == nil {
		b.library.LikeSong(ctx, t)
		return nil
	}
	if b.config.Optimistic {
		return b.optimisticLikes(ctx, "like "+t.VideoID,
			func(ctx context.Context) { b.library.LikeSong(ctx, t) },
			func(ctx context.Context) error { return b.remote.Like(ctx, t) })
	}

	if err := b.remote.Like(ctx, t); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to like %s", t.VideoID), ErrSyncFailed)
	}
	b.library.LikeSong(ctx, t)
	return nil
}

// Unlike removes the like for videoID, with the same failure policy as Like.
func (b *Bridge) Unlike(ctx context.Context, videoID string) error {
	b.likeMu.Lock()
	defer b.likeMu.Unlock()

	if b.remote == nil {
		b.library.UnlikeSong(ctx, videoID)
		return nil
	}
	if b.config.Optimistic {
		return b.optimisticLikes(ctx, "unlike "+videoID,
			func(ctx context.Context) { b.library.UnlikeSong(ctx, videoID) },
			func(ctx context.Context) error { return b.remote.Unlike(ctx, videoID) })
	}

	if err := b.remote.Unlike(ctx, videoID); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to unlike %s", videoID), ErrSyncFailed)
	}
	b.library.UnlikeSong(ctx, videoID)
	return nil
}

// optimisticLikes must be called with likeMu held.
func (b *Bridge) optimisticLikes(ctx context.Context, name string, apply func(context.Context), commit func(context.Context) error) error {
	err := optimistic.Do(ctx, optimistic.Update[[]track.Track]{
		Name:     name,
		Snapshot: b.library.LikedSongs,
		Apply:    apply,
		Commit:   commit,
		Rollback: func(ctx context.Context, liked []track.Track) {
			b.library.SetLiked(ctx, liked)
		},
	})
	if err != nil {
		return errors.Mark(err, ErrSyncFailed)
	}
	return nil
}

// RecordPlay sends t to the remote history in the background. Failures
// are logged only. Guest sessions keep history locally and do nothing here.
func (b *Bridge) RecordPlay(t track.Track) {
	if b.remote == nil {
		return
	}
	b.tasks.Go("record-history "+t.VideoID, func(ctx context.Context) error {
		return b.remote.RecordPlay(ctx, t)
	})
}

// Sync pulls the remote likes and recent history and overwrites the local
// liked set and history stack with them. Nothing is overwritten unless
// both pulls succeed.
func (b *Bridge) Sync(ctx context.Context) error {
	if b.remote == nil {
		return nil
	}

	var likes, history []track.Track
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		likes, err = b.remote.Likes(gctx)
		return errors.Wrap(err, "failed to pull likes")
	})
	g.Go(func() error {
		var err error
		history, err = b.remote.History(gctx, b.config.HistoryLimit)
		return errors.Wrap(err, "failed to pull history")
	})
	if err := g.Wait(); err != nil {
		return errors.Mark(err, ErrSyncFailed)
	}

	b.likeMu.Lock()
	b.library.SetLiked(ctx, likes)
	b.likeMu.Unlock()
	b.library.SetReverseQueue(ctx, history)
	zlog.Info().Msgf("remotesync: synced from remote: likes=%d history=%d", len(likes), len(history))
	return nil
}

// SyncInBackground runs Sync as a detached task so playback startup does
// not wait for the network.
func (b *Bridge) SyncInBackground() {
	if b.remote == nil {
		return
	}
	b.tasks.Go("sync-from-remote", b.Sync)
}

// Search returns tracks matching query. Remote results are remembered as
// discovered tracks. When the remote is absent or fails the local cache is
// searched instead.
func (b *Bridge) Search(ctx context.Context, query string, limit int) ([]track.Track, error) {
	if limit <= 0 {
		limit = b.config.SearchLimit
	}
	if b.remote == nil {
		return b.library.SearchLocal(query, limit), nil
	}

	results, err := b.remote.Search(ctx, query, limit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		zlog.Warn().Err(err).Msgf("remotesync: search failed, using local cache: q=%q", query)
		return b.library.SearchLocal(query, limit), nil
	}
	b.library.AddDiscoveredTracks(ctx, results)
	return results, nil
}
