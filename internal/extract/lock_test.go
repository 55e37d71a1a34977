package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestAcquireLock(t *testing.T) {
	t.Run("creates lock file", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "libfoo.so")

		lock, err := AcquireLock(context.Background(), dest)
		if err != nil {
			t.Fatalf("AcquireLock failed: %v", err)
		}
		defer lock.Release()

		data, err := os.ReadFile(dest + ".lock")
		if err != nil {
			t.Fatalf("lock file not created: %v", err)
		}
		if !strings.HasPrefix(string(data), "pid=") {
			t.Errorf("lock data = %q, want pid metadata", data)
		}
	})

	t.Run("prevents concurrent locks", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "libfoo.so")

		lock1, err := AcquireLock(context.Background(), dest)
		if err != nil {
			t.Fatalf("first AcquireLock failed: %v", err)
		}
		defer lock1.Release()

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		_, err = AcquireLock(ctx, dest)
		if err == nil {
			t.Fatal("expected error for concurrent lock")
		}
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrLockExists) {
			t.Errorf("expected deadline or ErrLockExists, got %v", err)
		}
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := AcquireLock(ctx, filepath.Join(t.TempDir(), "libfoo.so"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("waits for holder to release", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "libfoo.so")

		lock1, err := AcquireLock(context.Background(), dest)
		if err != nil {
			t.Fatalf("first AcquireLock failed: %v", err)
		}

		done := make(chan error, 1)
		go func() {
			lock2, err := AcquireLock(context.Background(), dest)
			if err == nil {
				err = lock2.Release()
			}
			done <- err
		}()

		time.Sleep(3 * lockPollInterval)
		if err := lock1.Release(); err != nil {
			t.Fatalf("Release failed: %v", err)
		}

		if err := <-done; err != nil {
			t.Errorf("waiting AcquireLock failed: %v", err)
		}
	})
}

func TestLockRelease(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "libfoo.so")

	lock, err := AcquireLock(context.Background(), dest)
	if err != nil {
		t.Fatalf("AcquireLock failed: %v", err)
	}

	if err := lock.Release(); err != nil {
		t.Fatalf("Release failed: %v", err)
	}
	if _, err := os.Stat(dest + ".lock"); !os.IsNotExist(err) {
		t.Error("lock file still exists after release")
	}

	// Releasing twice is harmless.
	if err := lock.Release(); err != nil {
		t.Errorf("second Release failed: %v", err)
	}
}

func TestStaleLockHandling(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "libfoo.so")
	lockPath := dest + ".lock"

	if err := os.WriteFile(lockPath, []byte("pid=1\n"), 0600); err != nil {
		t.Fatalf("failed to create stale lock: %v", err)
	}
	oldTime := time.Now().Add(-StaleLockThreshold - time.Minute)
	if err := os.Chtimes(lockPath, oldTime, oldTime); err != nil {
		t.Fatalf("failed to age lock: %v", err)
	}

	lock, err := AcquireLock(context.Background(), dest)
	if err != nil {
		t.Fatalf("AcquireLock should break stale lock: %v", err)
	}
	defer lock.Release()
}
