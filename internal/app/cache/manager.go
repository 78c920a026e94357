package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/cantio/internal/infra/store"
)

// Store keys. They are written independently, data first.
const (
	KeyData      = "data"
	KeyTimestamp = "timestamp"
)

// DefaultExpiry is how long a saved aggregate stays valid.
const DefaultExpiry = 30 * 24 * time.Hour

// Errors
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidIndex = errors.New("index out of range")
	ErrInvalidTitle = errors.New("title must not be empty")
)

// Manager is the sole owner of the guest aggregate. Every mutation holds
// mu through both the in-memory change and the full save, so mutations
// never interleave.
type Manager struct {
	mu     sync.Mutex
	store  store.Store
	cache  GuestCache
	expiry time.Duration
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithExpiry overrides DefaultExpiry.
func WithExpiry(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.expiry = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a manager holding a default aggregate. Call Init to
// load the saved aggregate.
func NewManager(s store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:  s,
		cache:  Default(),
		expiry: DefaultExpiry,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init loads the saved aggregate. The saved copy is accepted only when both
// keys are present, it is younger than the expiry and its version matches;
// otherwise fresh defaults are saved. Init never fails: an unreadable store
// leaves the manager on defaults. It reports whether a saved copy was used.
func (m *Manager) Init(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	loaded, reason, err := m.loadLocked(ctx)
	if err != nil {
		zlog.Error().Msgf("cache: init failed, using defaults: %v", err)
		m.cache = Default()
		return false
	}
	if loaded != nil {
		m.cache = *loaded
		zlog.Info().Msgf("cache: guest cache loaded: playlists=%d liked=%d queue=%d history=%d",
			len(m.cache.Playlists), len(m.cache.Liked), len(m.cache.Queue), len(m.cache.ReverseQueue))
		return true
	}

	zlog.Info().Msgf("cache: fresh guest cache initialized (%s)", reason)
	m.cache = Default()
	m.persistLocked(ctx)
	return false
}

// loadLocked returns the saved aggregate, or nil with the reason it was
// rejected. err is set only when the store itself could not be read.
func (m *Manager) loadLocked(ctx context.Context) (*GuestCache, string, error) {
	data, hasData, err := m.store.Get(ctx, KeyData)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read data")
	}
	rawTS, hasTS, err := m.store.Get(ctx, KeyTimestamp)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read timestamp")
	}
	if !hasData {
		return nil, "empty store", nil
	}
	if !hasTS {
		return nil, "missing timestamp", nil
	}

	ts, err := strconv.ParseInt(string(rawTS), 10, 64)
	if err != nil {
		return nil, "unreadable timestamp", nil
	}
	age := m.now().Sub(time.UnixMilli(ts))
	if age >= m.expiry {
		return nil, "expired", nil
	}

	var gc GuestCache
	if err := json.Unmarshal(data, &gc); err != nil {
		return nil, "unreadable data", nil
	}
	if gc.Version != CurrentVersion {
		return nil, "version mismatch: " + strconv.Itoa(gc.Version), nil
	}
	gc.normalize()
	return &gc, "", nil
}

// persistLocked writes the full aggregate then the save time. Failures are
// logged and never returned.
func (m *Manager) persistLocked(ctx context.Context) {
	data, err := json.Marshal(m.cache)
	if err != nil {
		zlog.Error().Msgf("cache: failed to encode aggregate: %v", err)
		return
	}
	if err := m.store.Set(ctx, KeyData, data); err != nil {
		zlog.Error().Msgf("cache: save error: %v", err)
		return
	}
	ts := strconv.FormatInt(m.now().UnixMilli(), 10)
	if err := m.store.Set(ctx, KeyTimestamp, []byte(ts)); err != nil {
		zlog.Error().Msgf("cache: save timestamp error: %v", err)
	}
}

// mutate applies fn to the aggregate and saves it when fn reports a change.
func (m *Manager) mutate(ctx context.Context, fn func(c *GuestCache) (changed bool, err error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	changed, err := fn(&m.cache)
	if err != nil {
		return err
	}
	if changed {
		m.persistLocked(ctx)
	}
	return nil
}

// read runs fn under the lock.
func (m *Manager) read(fn func(c *GuestCache)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.cache)
}

// Export returns a deep copy of the whole aggregate.
func (m *Manager) Export() GuestCache {
	var out GuestCache
	m.read(func(c *GuestCache) { out = c.Clone() })
	return out
}

// Import replaces the aggregate and saves it. Bounds are enforced and the
// version is set to CurrentVersion.
func (m *Manager) Import(ctx context.Context, data GuestCache) {
	data = data.Clone()
	data.normalize()
	data.Version = CurrentVersion
	if n := len(data.ReverseQueue); n > MaxReverseQueue {
		data.ReverseQueue = data.ReverseQueue[n-MaxReverseQueue:]
	}
	if len(data.DiscoveredTracks) > MaxDiscovered {
		data.DiscoveredTracks = data.DiscoveredTracks[:MaxDiscovered]
	}
	if n := len(data.PlayedVideoIDs); n > MaxPlayedIDs {
		data.PlayedVideoIDs = data.PlayedVideoIDs[n-MaxPlayedIDs:]
	}
	trimLyrics(data.Lyrics)

	_ = m.mutate(ctx, func(c *GuestCache) (bool, error) {
		*c = data
		return true, nil
	})
}

// ClearAll wipes the store and saves fresh defaults.
func (m *Manager) ClearAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cache = Default()
	if err := m.store.Clear(ctx); err != nil {
		zlog.Error().Msgf("cache: clear error: %v", err)
	}
	m.persistLocked(ctx)
}

func (m *Manager) nowMillis() int64 {
	return m.now().UnixMilli()
}
