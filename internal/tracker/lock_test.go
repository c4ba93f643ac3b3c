package tracker

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestWithRunLockRunsHandler(t *testing.T) {
	dir := t.TempDir()

	ran := false

	err := WithRunLock(dir, func() error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("WithRunLock: %v", err)
	}

	if !ran {
		t.Error("handler did not run")
	}
}

func TestWithRunLockRemovesLockFileAfterRelease(t *testing.T) {
	dir := t.TempDir()

	err := WithRunLock(dir, func() error { return nil })
	if err != nil {
		t.Fatalf("WithRunLock: %v", err)
	}

	lockPath := filepath.Join(dir, locksDirName, "run.lock")

	_, statErr := os.Stat(lockPath)
	if !os.IsNotExist(statErr) {
		t.Error("lock file should be removed after release")
	}
}

func TestWithRunLockSerializesOverlappingRuns(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex

	var order []string

	started := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)

		_ = WithRunLock(dir, func() error {
			close(started)

			time.Sleep(50 * time.Millisecond)

			mu.Lock()
			order = append(order, "first")
			mu.Unlock()

			return nil
		})
	}()

	<-started

	err := WithRunLock(dir, func() error {
		mu.Lock()
		order = append(order, "second")
		mu.Unlock()

		return nil
	})
	if err != nil {
		t.Fatalf("second WithRunLock: %v", err)
	}

	<-done

	mu.Lock()
	defer mu.Unlock()

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("order = %v, want first then second", order)
	}
}
