package records

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/quasilyte/gdata/v2"
	"github.com/sirupsen/logrus"
)

const (
	gdataObject   = "records"
	gdataProperty = "times"
)

// GdataBackend stores the record lines as a gdata object property, in the
// platform's per-user application data directory. gdata has no locking of
// its own, so updates are serialized within the process only.
type GdataBackend struct {
	mu      sync.Mutex
	manager *gdata.Manager
}

func NewGdataBackend(manager *gdata.Manager) *GdataBackend {
	return &GdataBackend{manager: manager}
}

// OpenGdataBackend opens the application data store for appName.
func OpenGdataBackend(appName string) (*GdataBackend, error) {
	manager, err := gdata.Open(gdata.Config{
		AppName: appName,
	})
	if err != nil {
		return nil, fmt.Errorf("open gdata %q: %w", appName, err)
	}
	return NewGdataBackend(manager), nil
}

func (backend *GdataBackend) Load(ctx context.Context) ([]TimeRecord, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	return backend.load()
}

func (backend *GdataBackend) Update(ctx context.Context, change Change) ([]TimeRecord, error) {
	backend.mu.Lock()
	defer backend.mu.Unlock()

	current, err := backend.load()
	if err != nil {
		return nil, err
	}
	updated := change(current)
	if err := backend.save(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (backend *GdataBackend) load() ([]TimeRecord, error) {
	if !backend.manager.ObjectPropExists(gdataObject, gdataProperty) {
		return nil, nil
	}

	data, err := backend.manager.LoadObjectProp(gdataObject, gdataProperty)
	if err != nil {
		return nil, fmt.Errorf("load gdata records: %w", err)
	}

	records, skipped, err := ReadLines(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logrus.WithField("skipped", skipped).Debug("skipped malformed record lines")
	}
	return records, nil
}

func (backend *GdataBackend) save(records []TimeRecord) error {
	var buf bytes.Buffer
	if err := WriteLines(&buf, records); err != nil {
		return err
	}

	if err := backend.manager.SaveObjectProp(gdataObject, gdataProperty, buf.Bytes()); err != nil {
		return fmt.Errorf("save gdata records: %w", err)
	}
	return nil
}
