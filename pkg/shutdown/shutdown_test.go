package shutdown

import (
	"context"
	"os"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestHandlersRunInReverseOrder(t *testing.T) {
	m := New(time.Second)

	var order []string
	m.Register(func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	m.Register(func(ctx context.Context) error {
		order = append(order, "second")
		return nil
	})

	m.Shutdown()

	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Errorf("handlers ran in order %v, want LIFO", order)
	}
}

func TestWaitForRunReturnsWhenIdle(t *testing.T) {
	var idle atomic.Bool
	fn := WaitForRun(idle.Load, time.Millisecond)

	go func() {
		time.Sleep(10 * time.Millisecond)
		idle.Store(true)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		t.Errorf("WaitForRun: %v", err)
	}
}

func TestWaitForRunTimesOut(t *testing.T) {
	fn := WaitForRun(func() bool { return false }, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := fn(ctx); err == nil {
		t.Error("expected timeout error for a run that never finishes")
	}
}

func TestDoneStartsOpen(t *testing.T) {
	m := New(time.Second)
	select {
	case <-m.Done():
		t.Fatal("Done should stay open until a signal arrives")
	default:
	}
}

func TestDoneClosesOnSignal(t *testing.T) {
	m := New(time.Second)
	go m.Wait()

	// Give Wait a moment to install its signal handler
	time.Sleep(50 * time.Millisecond)
	if err := syscall.Kill(os.Getpid(), syscall.SIGTERM); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case <-m.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done should close once a shutdown signal arrives")
	}
}
