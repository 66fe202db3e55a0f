package cache

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pierrec/lz4/v4"
	"go.etcd.io/bbolt"
)

var boltBucket = []byte("entries")

// BoltCache keeps all entries in a single bbolt file. Values are stored as
// an 8-byte expiry (unix nanoseconds, zero for none) followed by the data
// as an lz4 frame; position lists compress well.
type BoltCache struct {
	db *bbolt.DB
}

// NewBoltCache opens or creates the database at path.
func NewBoltCache(path string) (*BoltCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := bbolt.Open(path, 0o644, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt cache: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &BoltCache{db: db}, nil
}

// Get returns the entry for key. Expired or unreadable entries are deleted
// and reported as a miss.
func (c *BoltCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	var raw []byte
	err := c.db.View(func(tx *bbolt.Tx) error {
		// Values are only valid inside the transaction.
		if v := tx.Bucket(boltBucket).Get([]byte(key)); v != nil {
			raw = bytes.Clone(v)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, false, err
	}

	data, expired, err := decodeBoltEntry(raw)
	if err != nil || expired {
		// Corrupt and expired entries count as a miss.
		_ = c.Delete(context.Background(), key)
		return nil, false, nil
	}
	return data, true, nil
}

// Set compresses data and stores it with its expiry.
func (c *BoltCache) Set(_ context.Context, key string, data []byte, ttl time.Duration) error {
	raw, err := encodeBoltEntry(data, ttl)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Put([]byte(key), raw)
	})
}

// Delete removes the entry for key.
func (c *BoltCache) Delete(_ context.Context, key string) error {
	return c.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}

// Clear removes every entry and returns how many were removed.
func (c *BoltCache) Clear() (int, error) {
	n := 0
	err := c.db.Update(func(tx *bbolt.Tx) error {
		n = tx.Bucket(boltBucket).Stats().KeyN
		if err := tx.DeleteBucket(boltBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(boltBucket)
		return err
	})
	return n, err
}

// Close closes the database file.
func (c *BoltCache) Close() error { return c.db.Close() }

func encodeBoltEntry(data []byte, ttl time.Duration) ([]byte, error) {
	var buf bytes.Buffer
	var expires int64
	if ttl > 0 {
		expires = time.Now().Add(ttl).UnixNano()
	}
	var header [8]byte
	binary.BigEndian.PutUint64(header[:], uint64(expires))
	buf.Write(header[:])

	zw := lz4.NewWriter(&buf)
	if err := zw.Apply(lz4.ChecksumOption(true)); err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeBoltEntry(raw []byte) (data []byte, expired bool, err error) {
	if len(raw) < 8 {
		return nil, false, fmt.Errorf("bolt entry too short")
	}
	expires := int64(binary.BigEndian.Uint64(raw[:8]))
	if expires != 0 && time.Now().UnixNano() > expires {
		return nil, true, nil
	}
	data, err = io.ReadAll(lz4.NewReader(bytes.NewReader(raw[8:])))
	return data, false, err
}

var _ Cache = (*BoltCache)(nil)
