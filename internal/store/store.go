package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mmcdole/cadence/internal/domain"
	bolt "go.etcd.io/bbolt"
)

var (
	bucketQueue   = []byte("queue")
	bucketLyrics  = []byte("lyrics")
	bucketLibrary = []byte("library")
)

var allBuckets = [][]byte{bucketQueue, bucketLyrics, bucketLibrary}

// Store is the embedded persistence layer: BoltDB on disk with an
// in-memory copy of every value read or written.
type Store struct {
	db    *bolt.DB
	mu    sync.RWMutex
	cache map[string][]byte // raw JSON by bucket/key, filled on read and write

	// queue state
	writeMu   sync.Mutex // serializes queue read-modify-write cycles
	obsMu     sync.Mutex
	observers map[int]chan []domain.QueueRow
	nextObsID int
	newSlotID func() string
}

// Open creates a store rooted at dir. An empty dir yields a memory-only
// store (nothing survives the process).
func Open(dir string) (*Store, error) {
	s := &Store{
		cache:     make(map[string][]byte),
		observers: make(map[int]chan []domain.QueueRow),
		newSlotID: newSlotID,
	}
	if dir == "" {
		return s, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := bolt.Open(filepath.Join(dir, "cadence.db"), 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dir, err)
	}

	// Every bucket exists from here on; helpers do not nil-check them
	if err := db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range allBuckets {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

// Persistent reports whether the store is backed by a file
func (s *Store) Persistent() bool {
	return s.db != nil
}

func (s *Store) Close() error {
	s.obsMu.Lock()
	for id, ch := range s.observers {
		close(ch)
		delete(s.observers, id)
	}
	s.obsMu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// record addresses one JSON value inside a bucket
type record struct {
	bucket []byte
	key    string
}

func (r record) cacheKey() string { return string(r.bucket) + "/" + r.key }

// entry pairs a record with the value to write there
type entry struct {
	record
	value any
}

var (
	queueRows   = record{bucketQueue, "rows"}
	queueCursor = record{bucketQueue, "cursor"}
)

func lyricsRecord(uri string) record  { return record{bucketLyrics, uri} }
func libraryRecord(root string) record { return record{bucketLibrary, root} }

// load decodes the value at r. A missing or undecodable value reports false.
func load[T any](s *Store, r record) (T, bool) {
	var v T
	data := s.lookup(r)
	if data == nil || json.Unmarshal(data, &v) != nil {
		return v, false
	}
	return v, true
}

// lookup returns the raw bytes at r, reading through the memory cache and
// promoting disk hits into it
func (s *Store) lookup(r record) []byte {
	s.mu.RLock()
	data, hit := s.cache[r.cacheKey()]
	s.mu.RUnlock()
	if hit || s.db == nil {
		return data
	}

	_ = s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(r.bucket).Get([]byte(r.key)); v != nil {
			data = bytes.Clone(v)
		}
		return nil
	})
	if data != nil {
		s.mu.Lock()
		s.cache[r.cacheKey()] = data
		s.mu.Unlock()
	}
	return data
}

// save writes all entries in one transaction, so the queue rows and the
// cursor never diverge on disk
func (s *Store) save(entries ...entry) error {
	encoded := make([][]byte, len(entries))
	for i, e := range entries {
		data, err := json.Marshal(e.value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", e.cacheKey(), err)
		}
		encoded[i] = data
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			for i, e := range entries {
				if err := tx.Bucket(e.bucket).Put([]byte(e.key), encoded[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	for i, e := range entries {
		s.cache[e.cacheKey()] = encoded[i]
	}
	s.mu.Unlock()
	return nil
}

// drop forgets r in memory and on disk
func (s *Store) drop(r record) {
	s.mu.Lock()
	delete(s.cache, r.cacheKey())
	s.mu.Unlock()

	if s.db != nil {
		_ = s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(r.bucket).Delete([]byte(r.key))
		})
	}
}
