package runlock

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireRelease(t *testing.T) {
	l := New(t.TempDir())
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := l.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}

func TestAcquireCreatesMissingDataDir(t *testing.T) {
	// first run against a fresh config: data_dir doesn't exist yet
	dir := filepath.Join(t.TempDir(), "data")

	l := New(dir)
	if err := l.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire with absent data dir: %v", err)
	}
	defer func() { _ = l.Release() }()

	if _, err := os.Stat(filepath.Join(dir, "run.lock")); err != nil {
		t.Errorf("lock file not created under new data dir: %v", err)
	}
}

func TestSecondAcquireWaitsUntilRelease(t *testing.T) {
	dir := t.TempDir()

	first := New(dir)
	if err := first.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire: %v", err)
	}

	second := New(dir)
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := second.Acquire(ctx); err == nil {
		t.Error("second Acquire succeeded while the lock was held")
		_ = second.Release()
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := second.Acquire(context.Background()); err != nil {
		t.Errorf("Acquire after release: %v", err)
	}
	_ = second.Release()
}
