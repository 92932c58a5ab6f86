package storage

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when no object exists under a key.
	ErrNotFound = errors.New("object not found")
)

// Object is one stored version of a key.
type Object struct {
	Body     []byte
	StoredAt time.Time
}

// MemoryStore is a concurrency-safe in-memory object store. It keeps previous
// versions of overwritten keys so collisions stay observable.
type MemoryStore struct {
	mu sync.RWMutex

	// key: bucket + "/" + object key
	data map[string][]Object

	// max versions kept per key (<= 0 means unlimited)
	maxVersions int
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore(maxVersions int) *MemoryStore {
	return &MemoryStore{
		data:        make(map[string][]Object),
		maxVersions: maxVersions,
	}
}

// Put stores a copy of body under bucket/key, replacing the current version.
func (s *MemoryStore) Put(ctx context.Context, bucket, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	obj := Object{
		Body:     append([]byte(nil), body...),
		StoredAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := objectID(bucket, key)
	versions := append(s.data[id], obj)
	if s.maxVersions > 0 && len(versions) > s.maxVersions {
		versions = versions[len(versions)-s.maxVersions:]
	}
	s.data[id] = versions
	return nil
}

// Get returns the latest body stored under bucket/key.
func (s *MemoryStore) Get(bucket, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.data[objectID(bucket, key)]
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return append([]byte(nil), versions[len(versions)-1].Body...), nil
}

// Versions returns every retained version of bucket/key, oldest first.
func (s *MemoryStore) Versions(bucket, key string) []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()

	versions := s.data[objectID(bucket, key)]
	out := make([]Object, len(versions))
	copy(out, versions)
	return out
}

// Keys lists the object keys in a bucket in lexical order.
func (s *MemoryStore) Keys(bucket string) []string {
	prefix := bucket + "/"

	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for id := range s.data {
		if len(id) > len(prefix) && id[:len(prefix)] == prefix {
			keys = append(keys, id[len(prefix):])
		}
	}
	sort.Strings(keys)
	return keys
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}
