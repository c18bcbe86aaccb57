package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockPurger struct {
	mu    sync.Mutex
	n     int64
	err   error
	calls int
}

func (m *mockPurger) Purge(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.n, m.err
}

func (m *mockPurger) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestPurgeExpired(t *testing.T) {
	p := &mockPurger{n: 7}
	svc := NewCleanupService(p, testLogger())

	n, err := svc.PurgeExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7 rows, got %d", n)
	}
}

func TestPurgeExpired_Error(t *testing.T) {
	p := &mockPurger{err: errors.New("database is locked")}
	svc := NewCleanupService(p, testLogger())

	if _, err := svc.PurgeExpired(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestLoop_RunsUntilCancelled(t *testing.T) {
	p := &mockPurger{err: errors.New("transient")}
	svc := NewCleanupService(p, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Loop(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for p.Calls() < 3 {
		select {
		case <-deadline:
			t.Fatalf("loop ran %d times before deadline", p.Calls())
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestNewCleanupService_NilLogger(t *testing.T) {
	if svc := NewCleanupService(&mockPurger{}, nil); svc.logger == nil {
		t.Error("expected default logger")
	}
}
