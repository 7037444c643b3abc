package watcher

import (
	"context"
	"errors"
	"io"
	"log"
	"sync/atomic"
	"testing"
)

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestPushGateSingleTrigger(t *testing.T) {
	var pushes int32
	g := NewPushGate(func(ctx context.Context) error {
		atomic.AddInt32(&pushes, 1)
		return nil
	}, quietLogger())

	g.Trigger(context.Background())
	g.Wait()

	if got := atomic.LoadInt32(&pushes); got != 1 {
		t.Errorf("pushes = %d, want 1", got)
	}
	if !g.Idle() {
		t.Error("gate should be idle after the push completes")
	}
}

func TestPushGateCoalescesBurstDuringPush(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var pushes int32
	g := NewPushGate(func(ctx context.Context) error {
		if atomic.AddInt32(&pushes, 1) == 1 {
			close(started)
			<-release
		}
		return nil
	}, quietLogger())

	g.Trigger(context.Background())
	<-started

	// Five more triggers land while the first push is still in flight.
	for i := 0; i < 5; i++ {
		g.Trigger(context.Background())
	}
	close(release)
	g.Wait()

	if got := atomic.LoadInt32(&pushes); got != 2 {
		t.Errorf("pushes = %d, want 2 (the in-flight push plus one follow-up)", got)
	}
}

func TestPushGateFailureDoesNotStopFollowUp(t *testing.T) {
	var pushes int32
	g := NewPushGate(func(ctx context.Context) error {
		if atomic.AddInt32(&pushes, 1) == 1 {
			return errors.New("remote unavailable")
		}
		return nil
	}, quietLogger())

	g.Trigger(context.Background())
	g.Wait()
	if !g.Idle() {
		t.Fatal("gate should be idle after a failed push")
	}

	g.Trigger(context.Background())
	g.Wait()
	if got := atomic.LoadInt32(&pushes); got != 2 {
		t.Errorf("pushes = %d, want 2 (failure must not wedge the gate)", got)
	}
}

func TestPushGateIdleWhilePushing(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	g := NewPushGate(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}, quietLogger())

	g.Trigger(context.Background())
	<-started
	if g.Idle() {
		t.Error("gate should not report idle during an in-flight push")
	}
	close(release)
	g.Wait()

	// The pushing flag clears before run returns, so after Wait the gate
	// is observably idle.
	if !g.Idle() {
		t.Error("gate should be idle after Wait")
	}
}
