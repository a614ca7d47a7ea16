package main

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type slowSweeper struct {
	started  chan struct{}
	finished atomic.Bool
}

func (s *slowSweeper) Run(ctx context.Context) {
	close(s.started)
	<-ctx.Done()
	// simula un delete/append en curso al momento del cancel
	time.Sleep(20 * time.Millisecond)
	s.finished.Store(true)
}

func TestStartSweeper_StopWaitsForRun(t *testing.T) {
	sw := &slowSweeper{started: make(chan struct{})}
	stop := startSweeper(context.Background(), sw)

	select {
	case <-sw.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("sweeper did not start")
	}

	stop()
	if !sw.finished.Load() {
		t.Fatalf("stop returned before the sweeper finished")
	}
}

func TestStartSweeper_ParentCancelStopsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sw := &slowSweeper{started: make(chan struct{})}
	stop := startSweeper(ctx, sw)

	<-sw.started
	cancel()

	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("stop did not return after parent cancel")
	}
	if !sw.finished.Load() {
		t.Fatalf("expected sweeper finished")
	}
}
