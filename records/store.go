package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidLabel = errors.New("invalid difficulty label")
	// Returned by writes after the store failed to load its backend
	ErrBackendUnreadable = errors.New("records backend could not be read")
)

// Change maps the stored records to the ones to store instead.
type Change func(current []TimeRecord) []TimeRecord

// Backend persists the whole record sequence. Update reads the stored
// records, applies the change and writes the result as one atomic step, so
// stores in other processes sharing the backend never lose each other's
// writes. It returns what was written.
type Backend interface {
	Load(ctx context.Context) ([]TimeRecord, error)
	Update(ctx context.Context, change Change) ([]TimeRecord, error)
}

// Store keeps completed runs sorted by duration, fastest first, and writes
// the full sequence through to its backend after every change.
type Store struct {
	mu      sync.Mutex
	backend Backend
	records []TimeRecord
	// Why the last load failed; writes are refused while set
	loadErr error

	now     func() time.Time
	timeout time.Duration
	log     *logrus.Entry
}

type Option func(*Store)

// WithClock replaces time.Now for stamping new records.
func WithClock(now func() time.Time) Option {
	return func(store *Store) {
		store.now = now
	}
}

// WithTimeout bounds every backend call.
func WithTimeout(timeout time.Duration) Option {
	return func(store *Store) {
		store.timeout = timeout
	}
}

// Open creates a store over the backend and loads its records. A failed load
// is logged and leaves the store empty and read-only towards the backend
// until a Reload succeeds, so unread records are never overwritten.
func Open(backend Backend, options ...Option) *Store {
	store := &Store{
		backend: backend,
		now:     time.Now,
		timeout: 5 * time.Second,
		log:     logrus.WithField("backend", fmt.Sprintf("%T", backend)),
	}
	for _, option := range options {
		option(store)
	}

	if err := store.Reload(); err != nil {
		store.log.WithError(err).Warn("could not load time records, new records stay in memory")
	}
	return store
}

func (store *Store) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), store.timeout)
}

// Reload replaces the in-memory records with the backend's.
func (store *Store) Reload() error {
	ctx, cancel := store.context()
	defer cancel()

	loaded, err := store.backend.Load(ctx)

	store.mu.Lock()
	defer store.mu.Unlock()

	if err != nil {
		store.loadErr = err
		return fmt.Errorf("load records: %w", err)
	}
	sortRecords(loaded)
	store.records = loaded
	store.loadErr = nil

	store.log.WithField("count", len(loaded)).Debug("loaded time records")
	return nil
}

// AddRecord appends a run stamped with the current time and persists. The
// backend's current records are merged in, including ones other processes
// added since this store loaded.
func (store *Store) AddRecord(seconds int, difficultyLabel string) error {
	if strings.ContainsAny(difficultyLabel, ",\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidLabel, difficultyLabel)
	}
	if seconds < 0 {
		return fmt.Errorf("negative duration %d", seconds)
	}

	store.mu.Lock()
	defer store.mu.Unlock()

	record := TimeRecord{
		Seconds:     seconds,
		CompletedAt: store.now(),
		Difficulty:  difficultyLabel,
	}
	store.log.WithFields(logrus.Fields{
		"seconds":    seconds,
		"difficulty": difficultyLabel,
	}).Info("added time record")

	updated, err := store.update(func(current []TimeRecord) []TimeRecord {
		next := append(append([]TimeRecord(nil), current...), record)
		sortRecords(next)
		return next
	})
	if err != nil {
		// Keep the run for the rest of this process
		store.records = append(store.records, record)
		sortRecords(store.records)
		return err
	}

	store.records = updated
	return nil
}

// SortedRecords returns a copy of the records, fastest first.
func (store *Store) SortedRecords() []TimeRecord {
	store.mu.Lock()
	defer store.mu.Unlock()

	snapshot := make([]TimeRecord, len(store.records))
	copy(snapshot, store.records)
	return snapshot
}

// ClearRecords drops every record and persists the empty state.
func (store *Store) ClearRecords() error {
	store.mu.Lock()
	defer store.mu.Unlock()

	store.log.Info("cleared time records")

	_, err := store.update(func([]TimeRecord) []TimeRecord { return nil })
	store.records = nil
	return err
}

func (store *Store) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()

	return len(store.records)
}

// Close releases the backend if it holds resources.
func (store *Store) Close() error {
	if closer, ok := store.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// update must be called with mu held.
func (store *Store) update(change Change) ([]TimeRecord, error) {
	if store.loadErr != nil {
		store.log.WithError(store.loadErr).Warn("not saving time records over an unreadable backend")
		return nil, fmt.Errorf("%w: %v", ErrBackendUnreadable, store.loadErr)
	}

	ctx, cancel := store.context()
	defer cancel()

	updated, err := store.backend.Update(ctx, change)
	if err != nil {
		store.log.WithError(err).Warn("could not save time records")
		return nil, fmt.Errorf("save records: %w", err)
	}
	return updated, nil
}

// sortRecords orders by duration; the stable sort keeps ties in insertion
// order.
func sortRecords(records []TimeRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Seconds < records[j].Seconds
	})
}
