package store

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	bolt "go.etcd.io/bbolt"
)

// Bolt stores every key of one area in a single BoltDB bucket.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
}

// OpenBolt opens (or creates) the database at path and the bucket
// "<namespace>/<name>" inside it.
func OpenBolt(path, namespace, name string) (*Bolt, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "failed to create store directory")
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bolt db")
	}

	bucket := []byte(namespace + "/" + name)
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to create bucket")
	}

	return &Bolt{db: db, bucket: bucket}, nil
}

// Get implements Store.
func (s *Bolt) Get(_ context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			// Values are only valid for the life of the transaction.
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, s.wrap(err, "get")
	}
	return data, data != nil, nil
}

// Set implements Store.
func (s *Bolt) Set(_ context.Context, key string, value []byte) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), value)
	})
	return s.wrap(err, "set")
}

// Clear implements Store.
func (s *Bolt) Clear(_ context.Context) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(s.bucket)
		return err
	})
	return s.wrap(err, "clear")
}

// Close implements Store.
func (s *Bolt) Close() error {
	return s.db.Close()
}

func (s *Bolt) wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return errors.Mark(errors.Wrapf(err, "bolt %s", op), ErrClosed)
	}
	return errors.Wrapf(err, "bolt %s", op)
}
