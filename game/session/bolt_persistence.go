package session

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/mountain-goats/game/service"
	"go.etcd.io/bbolt"
)

const sessionBucket = "sessions"

// BoltPersistence stores sessions in a BoltDB file
type BoltPersistence struct {
	db *bbolt.DB
}

// NewBoltPersistence opens a BoltDB-backed store at the provided path.
func NewBoltPersistence(path string) (*BoltPersistence, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	db, err := bbolt.Open(filepath.Clean(path), 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &BoltPersistence{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Save persists a session record
func (b *BoltPersistence) Save(session *service.Session) error {
	data, payload, err := encodeSession(session)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return bucket.Put(sessionKey(data.ID), payload)
	})
}

// Load fetches a session record by ID
func (b *BoltPersistence) Load(id string) (*service.Session, error) {
	var payload []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		value := bucket.Get(sessionKey(id))
		if value == nil {
			return ErrSessionNotFound
		}
		// Values are only valid inside the transaction
		payload = append([]byte(nil), value...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	data, err := DecodePersistedSessionData(payload)
	if err != nil {
		return nil, err
	}
	return data.Restore()
}

// Delete removes a session record
func (b *BoltPersistence) Delete(id string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		if bucket.Get(sessionKey(id)) == nil {
			return ErrSessionNotFound
		}
		return bucket.Delete(sessionKey(id))
	})
}

// ListAll returns all stored session IDs in key order
func (b *BoltPersistence) ListAll() ([]string, error) {
	ids := []string{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		if bucket == nil {
			return fmt.Errorf("session bucket is missing")
		}
		return bucket.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Exists checks if a session record is stored
func (b *BoltPersistence) Exists(id string) bool {
	found := false
	_ = b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionBucket))
		found = bucket != nil && bucket.Get(sessionKey(id)) != nil
		return nil
	})
	return found
}

// Close closes the underlying BoltDB database.
func (b *BoltPersistence) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *BoltPersistence) ensureBuckets() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		if err != nil {
			return fmt.Errorf("create session bucket: %w", err)
		}
		return nil
	})
}

func sessionKey(id string) []byte {
	return []byte(id)
}
