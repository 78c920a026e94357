// Package store provides the durable key/value area backing the guest cache.
package store

import (
	"context"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cantio/internal/infra/config"
)

// Store is a namespaced key/value area that survives restarts.
// Writes to distinct keys are independent; no cross-key transaction is offered.
type Store interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Clear removes every key in the area.
	Clear(ctx context.Context) error
	// Close releases the underlying resources.
	Close() error
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// New opens the store backend selected by cfg.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	zlog.Debug().Msgf("store: opening backend=%s namespace=%s name=%s", cfg.Backend, cfg.Namespace, cfg.Name)
	switch cfg.Backend {
	case "bolt":
		return OpenBolt(cfg.Path, cfg.Namespace, cfg.Name)
	case "redis":
		return OpenRedis(ctx, RedisOptions{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Namespace: cfg.Namespace,
			Name:      cfg.Name,
		})
	case "memory":
		return NewMemory(), nil
	default:
		return nil, errors.Newf("unsupported store backend: %s", cfg.Backend)
	}
}
