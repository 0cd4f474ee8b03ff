// Package store persists the client state that outlives a console session:
// the session id of each console namespace and the key/value entries the
// server reads and writes through retrieveLocalData and storeLocalData.
package store

import (
	"bytes"
	"errors"
	"fmt"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	bucketSession = "session"
	bucketLocal   = "local"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store closed")

// Entry is one key/value pair of the local store.
type Entry struct {
	Key   string
	Value string
}

// LocalStore is the storage the console needs.
type LocalStore interface {
	// SessionID returns the session id saved for namespace, or "".
	SessionID(namespace string) (string, error)
	SetSessionID(namespace, id string) error

	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
	// Entries returns the entries whose key starts with prefix, ordered by
	// key.
	Entries(prefix string) ([]Entry, error)
}

// SessionKey is the key a namespace's session id is kept under.
func SessionKey(namespace string) string {
	return namespace + ".sessionId"
}

// Store is a LocalStore backed by a bbolt database file.
type Store struct {
	mu sync.RWMutex
	db *bolt.DB
}

// Open opens (creating if needed) the database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketSession, bucketLocal} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize store %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database. Later operations return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) view(fn func(tx *bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	return s.db.View(fn)
}

func (s *Store) update(fn func(tx *bolt.Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Update(fn)
}

func (s *Store) SessionID(namespace string) (string, error) {
	var id string
	err := s.view(func(tx *bolt.Tx) error {
		id = string(tx.Bucket([]byte(bucketSession)).Get([]byte(SessionKey(namespace))))
		return nil
	})
	return id, err
}

func (s *Store) SetSessionID(namespace, id string) error {
	return s.update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketSession)).Put([]byte(SessionKey(namespace)), []byte(id))
	})
}

func (s *Store) Get(key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.view(func(tx *bolt.Tx) error {
		if v := tx.Bucket([]byte(bucketLocal)).Get([]byte(key)); v != nil {
			value, found = string(v), true
		}
		return nil
	})
	return value, found, err
}

func (s *Store) Put(key, value string) error {
	return s.update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketLocal)).Put([]byte(key), []byte(value))
	})
}

func (s *Store) Delete(key string) error {
	return s.update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketLocal)).Delete([]byte(key))
	})
}

func (s *Store) Entries(prefix string) ([]Entry, error) {
	var out []Entry
	err := s.view(func(tx *bolt.Tx) error {
		c := tx.Bucket([]byte(bucketLocal)).Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			out = append(out, Entry{Key: string(k), Value: string(v)})
		}
		return nil
	})
	return out, err
}
