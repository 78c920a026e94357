package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	Namespace string
	Name      string
}

// Redis stores each key as "<namespace>:<name>:<key>".
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
}

// OpenRedis connects to redis and verifies the connection with PING.
func OpenRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "failed to ping redis")
	}

	return NewRedisWithClient(rdb, opts.Namespace, opts.Name), nil
}

// NewRedisWithClient wraps an existing client.
func NewRedisWithClient(rdb redis.UniversalClient, namespace, name string) *Redis {
	return &Redis{rdb: rdb, prefix: namespace + ":" + name + ":"}
}

// Get implements Store.
func (s *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, s.wrap(err, "get")
	}
	return data, true, nil
}

// Set implements Store.
func (s *Redis) Set(ctx context.Context, key string, value []byte) error {
	return s.wrap(s.rdb.Set(ctx, s.prefix+key, value, 0).Err(), "set")
}

// Clear implements Store. Keys are discovered with SCAN so the server is
// never blocked by KEYS.
func (s *Redis) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return s.wrap(err, "scan")
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return s.wrap(err, "del")
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close implements Store.
func (s *Redis) Close() error {
	return s.rdb.Close()
}

func (s *Redis) wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, redis.ErrClosed) {
		return errors.Mark(errors.Wrapf(err, "redis %s", op), ErrClosed)
	}
	return errors.Wrapf(err, "redis %s", op)
}
