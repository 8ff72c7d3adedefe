package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type jobFunc func(ctx context.Context)

func (f jobFunc) Run(ctx context.Context) { f(ctx) }

var noop = jobFunc(func(ctx context.Context) {})

func TestSingletonModeNeverOverlaps(t *testing.T) {
	var active, overlapped, runs int32

	slow := jobFunc(func(ctx context.Context) {
		if !atomic.CompareAndSwapInt32(&active, 0, 1) {
			atomic.StoreInt32(&overlapped, 1)
			return
		}
		atomic.AddInt32(&runs, 1)
		time.Sleep(150 * time.Millisecond)
		atomic.StoreInt32(&active, 0)
	})

	s := New(time.UTC, 20*time.Millisecond, time.Hour, time.Hour, slow, noop, noop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	time.Sleep(500 * time.Millisecond)

	if atomic.LoadInt32(&overlapped) == 1 {
		t.Fatal("a tick ran while the previous one was still in flight")
	}
	if atomic.LoadInt32(&runs) == 0 {
		t.Fatal("the job never ran")
	}
}
