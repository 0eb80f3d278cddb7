// Package runlock serializes ingestion runs. The store's read-then-write
// sequences are not atomic across writers, so overlapping runs must queue.
package runlock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

type Lock struct {
	dataDir string
	fl      *flock.Flock
}

func New(dataDir string) *Lock {
	return &Lock{
		dataDir: dataDir,
		fl:      flock.New(filepath.Join(dataDir, "run.lock")),
	}
}

// Acquire blocks until the lock is held or the context expires. The data
// directory is created on first use; runs lock before anything else touches it.
func (l *Lock) Acquire(ctx context.Context) error {
	if err := os.MkdirAll(l.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ok, err := l.fl.TryLockContext(ctx, 250*time.Millisecond)
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("run lock busy: %s", l.fl.Path())
	}
	return nil
}

func (l *Lock) Release() error {
	return l.fl.Unlock()
}
