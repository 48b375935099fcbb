// package cache memoizes slow-changing API lookups in flat JSON files.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"anisync/internal/shared"
)

var timeNow = time.Now

// entry pairs a cached value with the moment it stops being served.
type entry struct {
	Value  json.RawMessage `json:"value"`
	Expiry time.Time       `json:"expiry"`
}

// Entry is a point-in-time view of one cached record.
type Entry struct {
	Key    string
	Value  json.RawMessage
	Expiry time.Time
}

// Store is an in-memory key to value map bound to a single JSON file.
//
// The file is read once at [Open] and written back by [Store.Flush]; writes
// between the two only touch memory. A Store is not safe for concurrent use.
type Store struct {
	path    string
	entries map[string]entry
	dirty   bool
}

// Open loads the store persisted at path. A missing or corrupt file yields
// an empty store.
func Open(path string) *Store {
	s := &Store{path: path, entries: map[string]entry{}}

	data, err := os.ReadFile(path)
	if err != nil {
		return s
	}

	if err := json.Unmarshal(data, &s.entries); err != nil || s.entries == nil {
		s.entries = map[string]entry{}
	}

	return s
}

// Path reports the file the store flushes to.
func (s *Store) Path() string {
	return s.path
}

// Len reports the number of records held, expired ones included.
func (s *Store) Len() int {
	return len(s.entries)
}

// Get unmarshals the value stored under key into out and reports whether a
// live entry was found. Expired or unreadable entries count as misses and
// stay on disk until the next [Store.Put] replaces them.
func (s *Store) Get(key string, out any) bool {
	e, ok := s.entries[key]
	if !ok || timeNow().After(e.Expiry) {
		return false
	}

	return json.Unmarshal(e.Value, out) == nil
}

// Put stores value under key, expiring maxAge from now.
func (s *Store) Put(key string, value any, maxAge time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("%w: cache value for %q: %v", shared.ErrInvalidArgument, key, err)
	}

	s.entries[key] = entry{Value: raw, Expiry: timeNow().Add(maxAge)}
	s.dirty = true

	return nil
}

// Entries returns every record sorted by key.
func (s *Store) Entries() []Entry {
	out := make([]Entry, 0, len(s.entries))
	for k, e := range s.entries {
		out = append(out, Entry{Key: k, Value: e.Value, Expiry: e.Expiry})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Flush writes the store back to disk, creating the cache directory as
// needed. A store with no changes since Open is left untouched.
func (s *Store) Flush() error {
	if !s.dirty {
		return nil
	}

	data, err := shared.MarshalJSON(s.entries, true)
	if err != nil {
		return fmt.Errorf("failed to encode cache %s: %w", s.path, err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache %s: %w", s.path, err)
	}

	s.dirty = false
	return nil
}

// Close flushes the store. It exists so callers can defer teardown.
func (s *Store) Close() error {
	return s.Flush()
}

// Key flattens an argument list into a stable map key.
func Key(args ...any) string {
	return fmt.Sprintf("%v", args)
}

// Cached wraps fetch so results are served from s until they age out. Keys
// derive from the stringified argument, so distinct arguments cache
// independently. A cache write failure never fails the lookup.
func Cached[A, V any](s *Store, maxAge time.Duration, fetch func(context.Context, A) (V, error)) func(context.Context, A) (V, error) {
	return func(ctx context.Context, arg A) (V, error) {
		key := Key(arg)

		var hit V
		if s.Get(key, &hit) {
			return hit, nil
		}

		fresh, err := fetch(ctx, arg)
		if err != nil {
			return fresh, err
		}

		_ = s.Put(key, fresh, maxAge)
		return fresh, nil
	}
}
