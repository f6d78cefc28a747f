package records

import (
	"context"
	"sync"
)

// MemoryBackend holds records for the life of the process only.
type MemoryBackend struct {
	mu      sync.Mutex
	records []TimeRecord
}

func NewMemoryBackend(records ...TimeRecord) *MemoryBackend {
	return &MemoryBackend{records: append([]TimeRecord(nil), records...)}
}

func (backend *MemoryBackend) Load(ctx context.Context) ([]TimeRecord, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	return append([]TimeRecord(nil), backend.records...), nil
}

func (backend *MemoryBackend) Update(ctx context.Context, change Change) ([]TimeRecord, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	backend.records = append([]TimeRecord(nil), change(append([]TimeRecord(nil), backend.records...))...)
	return append([]TimeRecord(nil), backend.records...), nil
}
