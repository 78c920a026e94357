package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osa030/cantio/internal/infra/config"
)

func openBackends(t *testing.T) map[string]Store {
	t.Helper()

	b, err := OpenBolt(filepath.Join(t.TempDir(), "nested", "cantio.db"), "cantio", "guest_data")
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	r := NewRedisWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "cantio", "guest_data")

	return map[string]Store{
		"memory": NewMemory(),
		"bolt":   b,
		"redis":  r,
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()

	for name, s := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			defer s.Close()

			_, found, err := s.Get(ctx, "data")
			require.NoError(t, err)
			assert.False(t, found, "fresh store has no keys")

			require.NoError(t, s.Set(ctx, "data", []byte(`{"version":1}`)))
			require.NoError(t, s.Set(ctx, "timestamp", []byte("1700000000000")))

			v, found, err := s.Get(ctx, "data")
			require.NoError(t, err)
			assert.True(t, found)
			assert.Equal(t, `{"version":1}`, string(v))

			require.NoError(t, s.Set(ctx, "data", []byte(`{"version":2}`)))
			v, _, err = s.Get(ctx, "data")
			require.NoError(t, err)
			assert.Equal(t, `{"version":2}`, string(v), "set overwrites")

			require.NoError(t, s.Clear(ctx))
			_, found, err = s.Get(ctx, "data")
			require.NoError(t, err)
			assert.False(t, found)
			_, found, err = s.Get(ctx, "timestamp")
			require.NoError(t, err)
			assert.False(t, found)

			require.NoError(t, s.Set(ctx, "data", []byte("x")), "store is usable after clear")
		})
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	in := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", in))
	in[0] = 'z'

	out, _, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))

	out[1] = 'z'
	again, _, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemory_Closed(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	require.NoError(t, s.Close())

	_, _, err := s.Get(ctx, "k")
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(s.Set(ctx, "k", nil), ErrClosed))
}

func TestBolt_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cantio.db")

	s, err := OpenBolt(path, "cantio", "guest_data")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "data", []byte("persisted")))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path, "cantio", "guest_data")
	require.NoError(t, err)
	defer s.Close()

	v, found, err := s.Get(ctx, "data")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "persisted", string(v))

	other, err := OpenBolt(filepath.Join(t.TempDir(), "other.db"), "cantio", "other")
	require.NoError(t, err)
	defer other.Close()
	_, found, err = other.Get(ctx, "data")
	require.NoError(t, err)
	assert.False(t, found, "areas are isolated")
}

func TestBolt_ClosedStore(t *testing.T) {
	s, err := OpenBolt(filepath.Join(t.TempDir(), "cantio.db"), "cantio", "guest_data")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Set(context.Background(), "k", []byte("v"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClosed))
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.StoreConfig{Backend: "memory", Namespace: "cantio", Name: "guest_data"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)

	s, err = New(ctx, config.StoreConfig{Backend: "bolt", Path: filepath.Join(t.TempDir(), "c.db"), Namespace: "cantio", Name: "guest_data"})
	require.NoError(t, err)
	assert.IsType(t, &Bolt{}, s)
	require.NoError(t, s.Close())

	_, err = New(ctx, config.StoreConfig{Backend: "floppy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store backend")
}

func TestRedis_ClearIsScopedToArea(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	guest := NewRedisWithClient(rdb, "cantio", "guest_data")
	other := NewRedisWithClient(rdb, "cantio", "other")

	require.NoError(t, guest.Set(ctx, "data", []byte("g")))
	require.NoError(t, other.Set(ctx, "data", []byte("o")))
	assert.True(t, mr.Exists("cantio:guest_data:data"))

	require.NoError(t, guest.Clear(ctx))
	_, found, err := guest.Get(ctx, "data")
	require.NoError(t, err)
	assert.False(t, found)

	v, found, err := other.Get(ctx, "data")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "o", string(v))
}
