// Package task runs detached background work whose failures are logged,
// never returned.
package task

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// Group tracks detached tasks so shutdown can wait for them.
type Group struct {
	mu     sync.Mutex
	wg     conc.WaitGroup
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an empty group.
func New() *Group {
	ctx, cancel := context.WithCancel(context.Background())
	return &Group{ctx: ctx, cancel: cancel}
}

// Go runs fn in the background. fn receives a context cancelled when the
// group is closed. Errors and panics are logged under name. Go reports
// false when the group is already closed and fn was not started.
func (g *Group) Go(name string, fn func(ctx context.Context) error) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		zlog.Debug().Msgf("task: group closed, dropping %s", name)
		return false
	}

	g.wg.Go(func() {
		var err error
		var pc panics.Catcher
		pc.Try(func() { err = fn(g.ctx) })

		if r := pc.Recovered(); r != nil {
			zlog.Error().Msgf("task: %s panicked: %v\n%s", name, r.Value, r.Stack)
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			zlog.Warn().Err(err).Msgf("task: %s failed", name)
		}
	})
	return true
}

// Close stops accepting tasks and waits for the running ones. When ctx
// ends first the task context is cancelled and Close waits for the tasks
// to return.
func (g *Group) Close(ctx context.Context) {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		zlog.Warn().Msg("task: shutdown deadline reached, cancelling tasks")
		g.cancel()
		<-done
	}
	g.cancel()
}
