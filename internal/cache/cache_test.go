package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tu "anisync/internal/testing"
)

// freezeClock pins the package clock to a fixed instant and returns a
// pointer tests can advance.
func freezeClock(t *testing.T) *time.Time {
	t.Helper()

	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	restore := timeNow
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = restore })

	return &now
}

func TestStore(t *testing.T) {
	t.Run("Round Trips Values", func(t *testing.T) {
		s := Open(filepath.Join(t.TempDir(), "ids.json"))

		if err := s.Put("[alice]", 214077, time.Hour); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Put("[bob]", "string value", time.Hour); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		var id int
		if !s.Get("[alice]", &id) {
			t.Fatal("expected a cache hit for [alice]")
		}
		if id != 214077 {
			t.Errorf("expected 214077, got %d", id)
		}

		var str string
		if !s.Get("[bob]", &str) || str != "string value" {
			t.Errorf("expected %q, got %q", "string value", str)
		}

		if s.Len() != 2 {
			t.Errorf("expected 2 entries, got %d", s.Len())
		}
	})

	t.Run("Misses Unknown Keys", func(t *testing.T) {
		s := Open(filepath.Join(t.TempDir(), "ids.json"))

		var id int
		if s.Get("[nobody]", &id) {
			t.Error("expected a miss for an unknown key")
		}
	})

	t.Run("Expires Entries", func(t *testing.T) {
		now := freezeClock(t)
		s := Open(filepath.Join(t.TempDir(), "ids.json"))

		if err := s.Put("[alice]", 1, time.Hour); err != nil {
			t.Fatalf("Put failed: %v", err)
		}

		var id int
		*now = now.Add(time.Hour)
		if !s.Get("[alice]", &id) {
			t.Error("entry at its expiry instant should still be served")
		}

		*now = now.Add(time.Nanosecond)
		if s.Get("[alice]", &id) {
			t.Error("entry past its expiry should be a miss")
		}

		if s.Len() != 1 {
			t.Errorf("expired entry should remain until replaced, got %d entries", s.Len())
		}
	})

	t.Run("Survives Restart", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ids.json")

		s := Open(path)
		if err := s.Put("[alice]", 214077, time.Hour); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
		tu.AssertFileExists(t, path)

		reopened := Open(path)
		var id int
		if !reopened.Get("[alice]", &id) || id != 214077 {
			t.Errorf("expected 214077 after reopen, got %d", id)
		}
	})

	t.Run("Missing File Yields Empty Store", func(t *testing.T) {
		s := Open(filepath.Join(t.TempDir(), "never-written.json"))

		if s.Len() != 0 {
			t.Errorf("expected an empty store, got %d entries", s.Len())
		}
	})

	t.Run("Corrupt File Yields Empty Store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ids.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		s := Open(path)
		if s.Len() != 0 {
			t.Errorf("expected an empty store, got %d entries", s.Len())
		}

		if err := s.Put("[alice]", 1, time.Hour); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Flush(); err != nil {
			t.Fatalf("Flush over a corrupt file failed: %v", err)
		}

		var id int
		if !Open(path).Get("[alice]", &id) {
			t.Error("expected the rewritten file to round trip")
		}
	})

	t.Run("Null File Yields Empty Store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ids.json")
		if err := os.WriteFile(path, []byte("null"), 0644); err != nil {
			t.Fatalf("failed to write fixture: %v", err)
		}

		s := Open(path)
		if err := s.Put("[alice]", 1, time.Hour); err != nil {
			t.Fatalf("Put into a store loaded from null failed: %v", err)
		}
	})

	t.Run("Flush Skips Clean Store", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ids.json")

		s := Open(path)
		if err := s.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}

		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			t.Error("a store with no writes should not create its file")
		}
	})

	t.Run("Creates Cache Directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "dir", "ids.json")

		s := Open(path)
		if err := s.Put("[alice]", 1, time.Hour); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if err := s.Flush(); err != nil {
			t.Fatalf("Flush failed: %v", err)
		}

		tu.AssertDirExists(t, filepath.Dir(path))
		tu.AssertFileExists(t, path)
	})

	t.Run("Rejects Unmarshalable Values", func(t *testing.T) {
		s := Open(filepath.Join(t.TempDir(), "ids.json"))

		if err := s.Put("[fn]", func() {}, time.Hour); err == nil {
			t.Error("expected an error for an unmarshalable value")
		}
	})

	t.Run("Entries Sorted By Key", func(t *testing.T) {
		s := Open(filepath.Join(t.TempDir(), "ids.json"))
		for _, key := range []string{"[zed]", "[alice]", "[mid]"} {
			if err := s.Put(key, 1, time.Hour); err != nil {
				t.Fatalf("Put failed: %v", err)
			}
		}

		entries := s.Entries()
		if len(entries) != 3 {
			t.Fatalf("expected 3 entries, got %d", len(entries))
		}
		for i, want := range []string{"[alice]", "[mid]", "[zed]"} {
			if entries[i].Key != want {
				t.Errorf("entry %d: expected key %q, got %q", i, want, entries[i].Key)
			}
		}
	})
}

func TestCached(t *testing.T) {
	t.Run("Serves From Cache On Second Call", func(t *testing.T) {
		s := Open(filepath.Join(t.TempDir(), "ids.json"))

		calls := 0
		lookup := Cached(s, time.Hour, func(ctx context.Context, name string) (int, error) {
			calls++
			return 214077, nil
		})

		for range 2 {
			id, err := lookup(context.Background(), "alice")
			if err != nil {
				t.Fatalf("lookup failed: %v", err)
			}
			if id != 214077 {
				t.Errorf("expected 214077, got %d", id)
			}
		}

		if calls != 1 {
			t.Errorf("expected 1 fetch, got %d", calls)
		}
	})

	t.Run("Distinct Arguments Cache Independently", func(t *testing.T) {
		s := Open(filepath.Join(t.TempDir(), "ids.json"))

		calls := 0
		lookup := Cached(s, time.Hour, func(ctx context.Context, name string) (string, error) {
			calls++
			return "id-" + name, nil
		})

		first, _ := lookup(context.Background(), "alice")
		second, _ := lookup(context.Background(), "bob")

		if first != "id-alice" || second != "id-bob" {
			t.Errorf("expected per-argument values, got %q and %q", first, second)
		}
		if calls != 2 {
			t.Errorf("expected 2 fetches, got %d", calls)
		}
	})

	t.Run("Expired Entry Refetches", func(t *testing.T) {
		now := freezeClock(t)
		s := Open(filepath.Join(t.TempDir(), "ids.json"))

		calls := 0
		lookup := Cached(s, time.Hour, func(ctx context.Context, name string) (int, error) {
			calls++
			return calls, nil
		})

		if v, _ := lookup(context.Background(), "alice"); v != 1 {
			t.Errorf("expected 1, got %d", v)
		}

		*now = now.Add(2 * time.Hour)
		if v, _ := lookup(context.Background(), "alice"); v != 2 {
			t.Errorf("expected a refetched 2, got %d", v)
		}
	})

	t.Run("Fetch Errors Are Not Cached", func(t *testing.T) {
		s := Open(filepath.Join(t.TempDir(), "ids.json"))

		calls := 0
		lookup := Cached(s, time.Hour, func(ctx context.Context, name string) (int, error) {
			calls++
			if calls == 1 {
				return 0, errors.New("service unavailable")
			}
			return 7, nil
		})

		if _, err := lookup(context.Background(), "alice"); err == nil {
			t.Fatal("expected the first lookup to fail")
		}

		v, err := lookup(context.Background(), "alice")
		if err != nil {
			t.Fatalf("second lookup failed: %v", err)
		}
		if v != 7 || calls != 2 {
			t.Errorf("expected a fresh fetch after an error, got value %d after %d calls", v, calls)
		}
	})
}

func TestKey(t *testing.T) {
	tc := []struct {
		name string
		args []any
		want string
	}{
		{"Single String", []any{"alice"}, "[alice]"},
		{"Mixed Types", []any{1, "b"}, "[1 b]"},
		{"No Arguments", nil, "[]"},
	}

	for _, c := range tc {
		t.Run(c.name, func(t *testing.T) {
			if got := Key(c.args...); got != c.want {
				t.Errorf("expected %q, got %q", c.want, got)
			}
		})
	}
}
