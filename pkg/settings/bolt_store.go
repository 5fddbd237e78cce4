package settings

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const settingsBucket = "settings"

// boltStore implements a Store backed by BoltDB. Permanent values go
// to the database file; session values live in an in-memory overlay
// that shadows the file while set and is dropped on Close. This is
// the on-disk analog of a session cookie vs a cookie with a far-future
// expiry.
type boltStore struct {
	db      *bolt.DB
	mu      sync.RWMutex
	session map[string]string
}

// OpenBolt initializes a BoltDB-backed Store.
func OpenBolt(path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create settings directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(settingsBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{
		db:      db,
		session: make(map[string]string),
	}, nil
}

// Get returns the session value for key if one is set, otherwise the
// permanent value from the database.
func (b *boltStore) Get(key string) (string, bool) {
	if b == nil || b.db == nil {
		return "", false
	}

	b.mu.RLock()
	v, ok := b.session[key]
	b.mu.RUnlock()
	if ok {
		return v, true
	}

	var value string
	var found bool
	_ = b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return nil
		}
		if raw := bucket.Get([]byte(key)); raw != nil {
			value = string(raw)
			found = true
		}
		return nil
	})
	return value, found
}

// Set stores the value. Permanent values are written to the database;
// session values only shadow it until Close.
func (b *boltStore) Set(key, value string, permanent bool) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("settings store is closed")
	}

	if !permanent {
		b.mu.Lock()
		b.session[key] = value
		b.mu.Unlock()
		return nil
	}

	// A permanent write replaces any session shadow for the key.
	b.mu.Lock()
	delete(b.session, key)
	b.mu.Unlock()

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return fmt.Errorf("settings bucket missing")
		}
		return bucket.Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("persist setting: %w", err)
	}
	return nil
}

// Delete removes both the session and the permanent value for key.
func (b *boltStore) Delete(key string) error {
	if b == nil || b.db == nil {
		return fmt.Errorf("settings store is closed")
	}

	b.mu.Lock()
	delete(b.session, key)
	b.mu.Unlock()

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(settingsBucket))
		if bucket == nil {
			return fmt.Errorf("settings bucket missing")
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete setting: %w", err)
	}
	return nil
}

// Close drops session values and closes the database.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}

	b.mu.Lock()
	b.session = make(map[string]string)
	b.mu.Unlock()

	return b.db.Close()
}
