package records

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const DefaultFilePath = "minesweeper_records.txt"

const (
	lockPollInterval = 20 * time.Millisecond
	// A lock older than this was left behind by a crashed writer
	staleLockAge = 30 * time.Second
)

// FileBackend keeps records in a line-oriented text file. Writers in any
// process serialize on a sibling lock file.
type FileBackend struct {
	Path string
}

func NewFileBackend(path string) *FileBackend {
	if path == "" {
		path = DefaultFilePath
	}
	return &FileBackend{Path: path}
}

func (backend *FileBackend) Load(ctx context.Context) ([]TimeRecord, error) {
	file, err := os.Open(backend.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, skipped, err := ReadLines(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", backend.Path, err)
	}
	if skipped > 0 {
		logrus.WithFields(logrus.Fields{
			"path":    backend.Path,
			"skipped": skipped,
		}).Debug("skipped malformed record lines")
	}
	return records, nil
}

// Update re-reads the file under the lock, so records written by another
// process since this one loaded are kept.
func (backend *FileBackend) Update(ctx context.Context, change Change) ([]TimeRecord, error) {
	unlock, err := backend.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	current, err := backend.Load(ctx)
	if err != nil {
		return nil, err
	}

	updated := change(current)
	if err := backend.write(updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (backend *FileBackend) mkdir() error {
	dir := filepath.Dir(backend.Path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

func (backend *FileBackend) lock(ctx context.Context) (func(), error) {
	if err := backend.mkdir(); err != nil {
		return nil, err
	}

	lockPath := backend.Path + ".lock"
	for {
		file, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_ = file.Close()
			return func() { _ = os.Remove(lockPath) }, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("lock %s: %w", lockPath, err)
		}

		if info, statErr := os.Stat(lockPath); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			logrus.WithField("path", lockPath).Warn("removing stale records lock")
			_ = os.Remove(lockPath)
			continue
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", lockPath, ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}
}

// write replaces the file through a temporary sibling so a failed write
// never leaves a truncated file behind.
func (backend *FileBackend) write(records []TimeRecord) error {
	var buf bytes.Buffer
	if err := WriteLines(&buf, records); err != nil {
		return err
	}

	tmp := backend.Path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, backend.Path); err != nil {
		return fmt.Errorf("rename %s: %w", tmp, err)
	}
	return nil
}
