package records

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testRecords = []TimeRecord{
	{Seconds: 10, CompletedAt: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC), Difficulty: "Expert"},
	{Seconds: 30, CompletedAt: time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC), Difficulty: "Beginner"},
	{Seconds: 30, CompletedAt: time.Date(2024, 2, 1, 11, 0, 0, 0, time.UTC), Difficulty: "Intermediate (Challenge)"},
}

func replaceWith(records []TimeRecord) Change {
	return func([]TimeRecord) []TimeRecord { return records }
}

// exerciseBackend checks the contract every backend shares: empty on first
// load, exact round trip, and replacement on update.
func exerciseBackend(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()

	loaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 0 {
		t.Fatalf("fresh backend holds %+v", loaded)
	}

	if _, err := backend.Update(ctx, replaceWith(testRecords)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	loaded, err = backend.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	assertRecords(t, loaded, testRecords)

	if _, err := backend.Update(ctx, replaceWith(testRecords[:1])); err != nil {
		t.Fatalf("Update: %v", err)
	}
	loaded, _ = backend.Load(ctx)
	assertRecords(t, loaded, testRecords[:1])

	var seen []TimeRecord
	updated, err := backend.Update(ctx, func(current []TimeRecord) []TimeRecord {
		seen = current
		return append(current, testRecords[1])
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	assertRecords(t, seen, testRecords[:1])
	assertRecords(t, updated, testRecords[:2])
	loaded, _ = backend.Load(ctx)
	assertRecords(t, loaded, testRecords[:2])

	if _, err := backend.Update(ctx, replaceWith(nil)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if loaded, _ = backend.Load(ctx); len(loaded) != 0 {
		t.Fatalf("cleared backend holds %+v", loaded)
	}
}

func assertRecords(t *testing.T, got, want []TimeRecord) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got %d records, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i].Seconds != want[i].Seconds || got[i].Difficulty != want[i].Difficulty || !got[i].CompletedAt.Equal(want[i].CompletedAt) {
			t.Fatalf("record %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMemoryBackend(t *testing.T) {
	exerciseBackend(t, NewMemoryBackend())
}

func TestFileBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", DefaultFilePath)
	exerciseBackend(t, NewFileBackend(path))

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temporary file left behind: %v", err)
	}
}

func TestFileBackendSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilePath)
	content := "30,2024-05-01T12:30:00Z,Beginner\nabc\n10,2024-05-01T12:31:00Z,Expert\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := Open(NewFileBackend(path))
	sorted := store.SortedRecords()
	if len(sorted) != 2 || sorted[0].Seconds != 10 || sorted[1].Seconds != 30 {
		t.Fatalf("sorted %+v", sorted)
	}

	// The next save rewrites the file without the malformed line
	if err := store.AddRecord(20, "Intermediate"); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	reopened := Open(NewFileBackend(path))
	if reopened.Len() != 3 {
		t.Fatalf("reopened %+v", reopened.SortedRecords())
	}
}

func TestFileBackendReadsPastOverlongLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilePath)
	content := "30,2024-05-01T12:30:00Z,Beginner\n" +
		strings.Repeat("x", 100*1024) + "\n" +
		"10,2024-05-01T12:31:00Z,Expert\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	store := Open(NewFileBackend(path))
	if store.Len() != 2 {
		t.Fatalf("loaded %+v", store.SortedRecords())
	}
	if err := store.AddRecord(20, "Intermediate"); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	reopened := Open(NewFileBackend(path))
	sorted := reopened.SortedRecords()
	if len(sorted) != 3 || sorted[0].Seconds != 10 || sorted[2].Seconds != 30 {
		t.Fatalf("reopened %+v", sorted)
	}
}

func TestFileBackendStoresShareFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilePath)
	a := Open(NewFileBackend(path))
	b := Open(NewFileBackend(path))

	if err := a.AddRecord(10, "Beginner"); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := b.AddRecord(20, "Expert"); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	if b.Len() != 2 {
		t.Fatalf("second store %+v", b.SortedRecords())
	}
	if reopened := Open(NewFileBackend(path)); reopened.Len() != 2 {
		t.Fatalf("file holds %+v", reopened.SortedRecords())
	}
	if _, err := os.Stat(path + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("lock file left behind: %v", err)
	}
}

func TestFileBackendWaitsForLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFilePath)
	if err := os.WriteFile(path+".lock", nil, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := NewFileBackend(path).Update(ctx, replaceWith(testRecords)); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected a deadline error, got %v", err)
	}

	stale := time.Now().Add(-time.Minute)
	if err := os.Chtimes(path+".lock", stale, stale); err != nil {
		t.Fatalf("Chtimes: %v", err)
	}
	if _, err := NewFileBackend(path).Update(context.Background(), replaceWith(testRecords)); err != nil {
		t.Fatalf("Update over a stale lock: %v", err)
	}
}

func TestNewFileBackendDefaultPath(t *testing.T) {
	if backend := NewFileBackend(""); backend.Path != DefaultFilePath {
		t.Fatalf("path %q", backend.Path)
	}
}

func TestSQLiteBackend(t *testing.T) {
	backend, err := OpenSQLiteBackend(context.Background(), filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	defer backend.Close()

	exerciseBackend(t, backend)
}

func TestSQLiteBackendThroughStore(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "records.db")

	backend, err := OpenSQLiteBackend(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	store := Open(backend)
	_ = store.AddRecord(30, "Beginner")
	_ = store.AddRecord(10, "Expert")
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	backend, err = OpenSQLiteBackend(context.Background(), dsn)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	store = Open(backend)
	defer store.Close()

	sorted := store.SortedRecords()
	if len(sorted) != 2 || sorted[0].Difficulty != "Expert" || sorted[1].Difficulty != "Beginner" {
		t.Fatalf("sorted %+v", sorted)
	}
}

func TestSQLiteBackendStoresShareDatabase(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "records.db")
	ctx := context.Background()

	first, err := OpenSQLiteBackend(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}
	second, err := OpenSQLiteBackend(ctx, dsn)
	if err != nil {
		t.Fatalf("OpenSQLiteBackend: %v", err)
	}

	a, b := Open(first), Open(second)
	defer a.Close()
	defer b.Close()

	if err := a.AddRecord(10, "Beginner"); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := b.AddRecord(20, "Expert"); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	loaded, err := first.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 2 || b.Len() != 2 {
		t.Fatalf("loaded %+v, second store %+v", loaded, b.SortedRecords())
	}
}

func TestRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := NewRedisBackend(rdb, "")
	defer backend.Close()

	exerciseBackend(t, backend)

	if _, err := backend.Update(context.Background(), replaceWith(testRecords)); err != nil {
		t.Fatalf("Update: %v", err)
	}
	lines, err := mr.List(DefaultRedisKey)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 3 || lines[0] != "10,2024-02-01T10:00:00Z,Expert" {
		t.Fatalf("stored lines %q", lines)
	}
}

func TestRedisBackendStoresShareKey(t *testing.T) {
	mr := miniredis.RunT(t)

	a := Open(NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ""))
	b := Open(NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}), ""))
	defer a.Close()
	defer b.Close()

	if err := a.AddRecord(10, "Beginner"); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}
	if err := b.AddRecord(20, "Expert"); err != nil {
		t.Fatalf("AddRecord: %v", err)
	}

	lines, err := mr.List(DefaultRedisKey)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(lines) != 2 || b.Len() != 2 {
		t.Fatalf("stored lines %q, second store %+v", lines, b.SortedRecords())
	}
}

func TestRedisBackendRetriesConflictingUpdate(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	backend := NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "")
	defer backend.Close()
	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer other.Close()

	calls := 0
	updated, err := backend.Update(ctx, func(current []TimeRecord) []TimeRecord {
		calls++
		if calls == 1 {
			// Another client writes between the read and the transaction
			if err := other.RPush(ctx, DefaultRedisKey, EncodeLine(testRecords[1])).Err(); err != nil {
				t.Fatalf("RPush: %v", err)
			}
		}
		return append(current, testRecords[0])
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if calls != 2 {
		t.Fatalf("change applied %d times, want 2", calls)
	}
	assertRecords(t, updated, []TimeRecord{testRecords[1], testRecords[0]})

	lines, _ := mr.List(DefaultRedisKey)
	if len(lines) != 2 {
		t.Fatalf("stored lines %q", lines)
	}
}

func TestRedisBackendSkipsMalformedLines(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RPush("times", "abc", "12,2024-02-01T10:00:00Z,Beginner")

	backend, err := OpenRedisBackend(context.Background(), "redis://"+mr.Addr(), "times")
	if err != nil {
		t.Fatalf("OpenRedisBackend: %v", err)
	}
	defer backend.Close()

	loaded, err := backend.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].Seconds != 12 {
		t.Fatalf("loaded %+v", loaded)
	}
}

func TestOpenRedisBackendBadURL(t *testing.T) {
	if _, err := OpenRedisBackend(context.Background(), "http://localhost", ""); err == nil {
		t.Fatalf("expected an error")
	}
}

func TestGdataBackend(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))

	backend, err := OpenGdataBackend("gosweep_test")
	if err != nil {
		t.Skipf("gdata unavailable: %v", err)
	}

	exerciseBackend(t, backend)
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()

	backend, err := NewBackend(ctx, BackendConfig{})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	if file, ok := backend.(*FileBackend); !ok || file.Path != DefaultFilePath {
		t.Fatalf("default backend %#v", backend)
	}

	backend, err = NewBackend(ctx, BackendConfig{Kind: "Memory"})
	if _, ok := backend.(*MemoryBackend); err != nil || !ok {
		t.Fatalf("memory backend %#v (%v)", backend, err)
	}

	backend, err = NewBackend(ctx, BackendConfig{Kind: KindSQLite, DSN: filepath.Join(t.TempDir(), "r.db")})
	if err != nil {
		t.Fatalf("sqlite backend: %v", err)
	}
	backend.(*SQLiteBackend).Close()

	mr := miniredis.RunT(t)
	backend, err = NewBackend(ctx, BackendConfig{Kind: KindRedis, RedisURL: "redis://" + mr.Addr()})
	if err != nil {
		t.Fatalf("redis backend: %v", err)
	}
	backend.(*RedisBackend).Close()

	if _, err := NewBackend(ctx, BackendConfig{Kind: "tape"}); err == nil {
		t.Fatalf("unknown backend accepted")
	}
}
