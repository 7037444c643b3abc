package watcher

import (
	"context"
	"log"
	"sync"
)

// PushFunc performs one push of the watched local root.
type PushFunc func(ctx context.Context) error

// PushGate serializes push invocations with two flags: pushing and queued.
//
// States: Idle (neither set), Pushing (pushing set), PushingWithQueued (both
// set). A trigger while idle starts a push; a trigger while a push is in
// flight only sets the queued flag, so any burst of triggers during one push
// collapses into exactly one follow-up push. A push failure is logged and
// does not stop the gate.
type PushGate struct {
	push   PushFunc
	logger *log.Logger

	mu      sync.Mutex
	pushing bool
	queued  bool
	wg      sync.WaitGroup
}

// NewPushGate creates a gate around push.
func NewPushGate(push PushFunc, logger *log.Logger) *PushGate {
	return &PushGate{push: push, logger: logger}
}

// Trigger requests a push. Never blocks on the push itself.
func (g *PushGate) Trigger(ctx context.Context) {
	g.mu.Lock()
	if g.pushing {
		g.queued = true
		g.mu.Unlock()
		return
	}
	g.pushing = true
	g.mu.Unlock()

	g.wg.Add(1)
	go g.run(ctx)
}

// run executes pushes until no follow-up is queued. It covers changes that
// occurred during an in-flight push by re-invoking the push once per drain
// of the queued flag.
func (g *PushGate) run(ctx context.Context) {
	defer g.wg.Done()
	for {
		if err := g.push(ctx); err != nil {
			g.logger.Printf("Push failed: %v", err)
		}
		g.mu.Lock()
		if g.queued {
			g.queued = false
			g.mu.Unlock()
			continue
		}
		g.pushing = false
		g.mu.Unlock()
		return
	}
}

// Idle reports whether no push is in flight.
func (g *PushGate) Idle() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.pushing
}

// Wait blocks until any in-flight push (and its queued follow-up) completes.
func (g *PushGate) Wait() {
	g.wg.Wait()
}
