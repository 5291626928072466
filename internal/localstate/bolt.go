package localstate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var slotsBucket = []byte("slots")

var errStateLocked = errors.New("state file is locked: is another liftlog instance running?")

// BoltStore keeps slots in a bbolt bucket.
type BoltStore struct {
	conn *bolt.DB
}

// OpenBolt opens (or creates) the bbolt file at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir for %s: %w", path, err)
	}

	var fileMode fs.FileMode = 0o600
	db, err := bolt.Open(path, fileMode, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		if errors.Is(err, bolt.ErrTimeout) {
			return nil, errStateLocked
		}
		return nil, fmt.Errorf("opening state file: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(slotsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating slots bucket: %w", err)
	}

	return &BoltStore{conn: db}, nil
}

// Load returns a copy of the slot contents, or nil if the slot is empty.
func (s *BoltStore) Load(_ context.Context, key string) ([]byte, error) {
	var data []byte
	err := s.conn.View(func(tx *bolt.Tx) error {
		// Values are only valid for the life of the transaction.
		if v := tx.Bucket(slotsBucket).Get([]byte(key)); v != nil {
			data = bytes.Clone(v)
		}
		return nil
	})
	return data, err
}

// Save replaces the slot contents.
func (s *BoltStore) Save(_ context.Context, key string, data []byte) error {
	return s.conn.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(slotsBucket).Put([]byte(key), data)
	})
}

// Clear empties the slot.
func (s *BoltStore) Clear(_ context.Context, key string) error {
	return s.conn.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(slotsBucket).Delete([]byte(key))
	})
}

// Close releases the file lock.
func (s *BoltStore) Close() error {
	return s.conn.Close()
}
