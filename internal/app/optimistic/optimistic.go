// Package optimistic applies a local change before the remote call that
// confirms it, and reverts the change when the call fails.
package optimistic

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// Update describes one optimistic change over state of type S.
type Update[S any] struct {
	Name     string
	Snapshot func() S                   // captures the state to restore
	Apply    func(ctx context.Context)  // local change, shown immediately
	Commit   func(ctx context.Context) error
	Rollback func(ctx context.Context, snap S)
}

// Do snapshots, applies and commits u. A failed commit restores the
// snapshot and returns the commit error.
func Do[S any](ctx context.Context, u Update[S]) error {
	if u.Snapshot == nil || u.Apply == nil || u.Commit == nil || u.Rollback == nil {
		return errors.Newf("optimistic update %q is incomplete", u.Name)
	}

	snap := u.Snapshot()
	u.Apply(ctx)

	if err := u.Commit(ctx); err != nil {
		zlog.Warn().Err(err).Msgf("optimistic: %s failed, rolling back", u.Name)
		// The caller's context may be what failed the commit.
		u.Rollback(context.WithoutCancel(ctx), snap)
		return errors.Wrapf(err, "%s", u.Name)
	}
	return nil
}
