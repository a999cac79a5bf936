package trigger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"testing"
	"time"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestHooks_RunLIFOOnce(t *testing.T) {
	var h Hooks
	var mu sync.Mutex
	var order []int

	for i := 1; i <= 3; i++ {
		i := i
		h.Handle(func(context.Context) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, i)
		})
	}

	h.Run(context.Background())
	h.Run(context.Background())

	want := []int{3, 2, 1}
	if len(order) != len(want) {
		t.Fatalf("hooks ran %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order = %v, want %v", order, want)
			break
		}
	}
}

func TestHooks_PassesContext(t *testing.T) {
	type key struct{}
	var h Hooks
	var got interface{}

	h.Handle(func(ctx context.Context) { got = ctx.Value(key{}) })
	h.Run(context.WithValue(context.Background(), key{}, "host"))

	if got != "host" {
		t.Errorf("hook saw %v, want host", got)
	}
}

func TestWaitSignal_Received(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = syscall.Kill(os.Getpid(), syscall.SIGUSR1)
	}()

	sig, err := WaitSignal(ctx, syscall.SIGUSR1)
	if err != nil {
		t.Fatalf("WaitSignal() error = %v", err)
	}
	if sig != syscall.SIGUSR1 {
		t.Errorf("WaitSignal() = %v, want SIGUSR1", sig)
	}
}

func TestWaitSignal_ContextDone(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	sig, err := WaitSignal(ctx, syscall.SIGUSR2)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("WaitSignal() error = %v, want deadline exceeded", err)
	}
	if sig != nil {
		t.Errorf("WaitSignal() = %v, want nil", sig)
	}
}

func TestLockWatcher_MissingFile(t *testing.T) {
	lw := NewLockWatcher(filepath.Join(t.TempDir(), "host.lock"), quiet)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := lw.Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestLockWatcher_Removed(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, "host.lock")
	if err := os.WriteFile(lock, []byte("1234"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Unrelated activity in the same folder must not release the wait.
	other := filepath.Join(dir, "other.lock")
	if err := os.WriteFile(other, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.Remove(other)
		time.Sleep(50 * time.Millisecond)
		_ = os.Remove(lock)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := NewLockWatcher(lock, quiet).Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Error("Wait() returned before the lock file was removed")
	}
}

func TestLockWatcher_RenamedAway(t *testing.T) {
	dir := t.TempDir()
	lock := filepath.Join(dir, "host.lock")
	if err := os.WriteFile(lock, []byte("1234"), 0o644); err != nil {
		t.Fatal(err)
	}

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.Rename(lock, filepath.Join(dir, "host.lock.old"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := NewLockWatcher(lock, quiet).Wait(ctx); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
}

func TestLockWatcher_ContextDone(t *testing.T) {
	lock := filepath.Join(t.TempDir(), "host.lock")
	if err := os.WriteFile(lock, []byte("1234"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewLockWatcher(lock, quiet).Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait() error = %v, want deadline exceeded", err)
	}
}

func TestLockWatcher_MissingDirectory(t *testing.T) {
	lw := NewLockWatcher(filepath.Join(t.TempDir(), "gone", "host.lock"), quiet)
	if err := lw.Wait(context.Background()); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	if _, err := NewScheduler("every tuesday", func(context.Context) {}, quiet); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestScheduler_RunsJob(t *testing.T) {
	ran := make(chan struct{}, 1)
	s, err := NewScheduler("@every 1s", func(context.Context) {
		select {
		case ran <- struct{}{}:
		default:
		}
	}, quiet)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := s.Start(ctx); err == nil {
		t.Error("second Start() should fail")
	}
	if next := s.NextRun(); next == nil || next.IsZero() {
		t.Error("NextRun() should be set while running")
	}

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduled job did not run")
	}

	s.Stop()
	if s.Running() {
		t.Error("Running() = true after Stop()")
	}
	if s.NextRun() != nil {
		t.Error("NextRun() should be nil after Stop()")
	}
}

func TestScheduler_StopsWithContext(t *testing.T) {
	s, err := NewScheduler("@hourly", func(context.Context) {}, quiet)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.Running() {
		if time.Now().After(deadline) {
			t.Fatal("scheduler still running after context cancel")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
