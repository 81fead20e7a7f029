package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/pgale/dripplay/internal/domain"
)

// Bucket names
var (
	bucketCollections = []byte("collections")
	bucketEnrollments = []byte("enrollments")
)

// CatalogStore implements domain.Store using BoltDB with an in-memory
// promote cache for hot-path reads. Keys encode the collection id so a
// whole collection can be invalidated by prefix deletion when an
// administrator edits it.
type CatalogStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	cache map[string][]byte
}

// New opens (or creates) the cache under baseCacheDir, namespaced by server
// URL so switching servers never serves stale data. An empty baseCacheDir
// yields a memory-only store with no persistence.
func New(baseCacheDir, serverURL string) (*CatalogStore, error) {
	if baseCacheDir == "" {
		return &CatalogStore{cache: make(map[string][]byte)}, nil
	}

	dir := baseCacheDir
	if serverURL != "" {
		dir = filepath.Join(baseCacheDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "dripplay.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCollections, bucketEnrollments} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &CatalogStore{db: db, cache: make(map[string][]byte)}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *CatalogStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *CatalogStore) get(bucket []byte, key string, dest interface{}) bool {
	cacheKey := string(bucket) + ":" + key

	// Check memory cache first
	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	// Read from BoltDB
	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *CatalogStore) set(bucket []byte, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	if s.db == nil {
		return nil // Memory-only mode
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		return b.Put([]byte(key), data)
	})
}

func (s *CatalogStore) delete(bucket []byte, key string) {
	cacheKey := string(bucket) + ":" + key

	s.mu.Lock()
	delete(s.cache, cacheKey)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b != nil {
			b.Delete([]byte(key))
		}
		return nil
	})
}

func (s *CatalogStore) deletePrefix(bucket []byte, prefix string) {
	s.mu.Lock()
	cachePrefix := string(bucket) + ":" + prefix
	for k := range s.cache {
		if strings.HasPrefix(k, cachePrefix) {
			delete(s.cache, k)
		}
	}
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		c := b.Cursor()
		prefixBytes := []byte(prefix)
		for k, _ := c.Seek(prefixBytes); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

// === Collections ===

func (s *CatalogStore) GetTrackItems(collectionID string) ([]*domain.ContentItem, bool) {
	var items []*domain.ContentItem
	ok := s.get(bucketCollections, "col:"+collectionID+":tracks", &items)
	return items, ok
}

func (s *CatalogStore) SaveTrackItems(collectionID string, items []*domain.ContentItem, serverTS int64) error {
	if err := s.set(bucketCollections, "col:"+collectionID+":tracks", items); err != nil {
		return err
	}
	// Save timestamp separately for freshness checks
	return s.set(bucketCollections, "col:"+collectionID+":ts", serverTS)
}

func (s *CatalogStore) GetModuleEntries(collectionID string) ([]*domain.ModuleEntry, bool) {
	var entries []*domain.ModuleEntry
	ok := s.get(bucketCollections, "col:"+collectionID+":modules", &entries)
	return entries, ok
}

func (s *CatalogStore) SaveModuleEntries(collectionID string, entries []*domain.ModuleEntry, serverTS int64) error {
	if err := s.set(bucketCollections, "col:"+collectionID+":modules", entries); err != nil {
		return err
	}
	return s.set(bucketCollections, "col:"+collectionID+":ts", serverTS)
}

// === Enrollments (key: learner:{learnerID}:col:{collectionID}) ===

func (s *CatalogStore) GetEnrollment(learnerID, collectionID string) (*domain.Enrollment, bool) {
	var enr domain.Enrollment
	key := fmt.Sprintf("learner:%s:col:%s", learnerID, collectionID)
	if !s.get(bucketEnrollments, key, &enr) {
		return nil, false
	}
	return &enr, true
}

func (s *CatalogStore) SaveEnrollment(enr *domain.Enrollment) error {
	key := fmt.Sprintf("learner:%s:col:%s", enr.LearnerID, enr.CollectionID)
	return s.set(bucketEnrollments, key, enr)
}

// === Validation ===

func (s *CatalogStore) IsValid(collectionID string, serverTS int64) bool {
	var storedTS int64
	if !s.get(bucketCollections, "col:"+collectionID+":ts", &storedTS) {
		return false
	}
	return storedTS >= serverTS
}

// === Invalidation (prefix deletion) ===

// InvalidateCollection wipes a collection's track and module listings plus
// its freshness timestamp. Enrollments survive; anchors are immutable.
func (s *CatalogStore) InvalidateCollection(collectionID string) {
	s.deletePrefix(bucketCollections, "col:"+collectionID+":")
}

// InvalidateEnrollments wipes all cached enrollments for a learner.
func (s *CatalogStore) InvalidateEnrollments(learnerID string) {
	s.deletePrefix(bucketEnrollments, "learner:"+learnerID+":")
}

func (s *CatalogStore) InvalidateAll() {
	s.mu.Lock()
	s.cache = make(map[string][]byte)
	s.mu.Unlock()

	if s.db == nil {
		return
	}

	s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCollections, bucketEnrollments} {
			b := tx.Bucket(bucket)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
