// Package coordinator is the single-threaded consumer of the signal
// channel: the only writer of actor state on the ingress path, of the
// spawn-correlation and pending-message tables, and of every run-queue push
// triggered by a signal (workers requeue actors themselves).
package coordinator

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"actorhost/internal/actor"
	"actorhost/internal/diag"
	"actorhost/internal/errs"
	"actorhost/internal/ids"
	"actorhost/internal/mailbox"
	"actorhost/internal/pool"
	"actorhost/internal/runqueue"
	"actorhost/internal/sandbox"
	"actorhost/internal/sigchan"
	"go.uber.org/atomic"
)

// pollInterval bounds how long the coordinator spins between empty polls of
// the signal channel, per §5's "may spin-poll with brief sleeps".
const pollInterval = 500 * time.Microsecond

// Coordinator owns every data structure §4.3 names as coordinator-exclusive:
// the actor table, the spawn correlation table, the pending messages table,
// and the actor-id counter. It is not safe for concurrent use by more than
// one goroutine — Run is meant to execute on exactly one goroutine.
type Coordinator struct {
	signals *sigchan.Channel
	runQ    *runqueue.RunQueue
	pool    pool.Pool[sandbox.Sandbox]
	ids     *ids.Actors
	line    *diag.Line

	actors          map[int64]*actor.Actor
	spawnRequests   map[string]int64
	pendingMessages map[string][][]byte
	reclaimed       map[int64]bool

	alive   atomic.Int64
	spawned atomic.Int64
}

// New constructs an unstarted Coordinator. factory builds a fresh Sandbox
// when the pool has none idle.
func New(
	signals *sigchan.Channel,
	runQ *runqueue.RunQueue,
	factory func() (sandbox.Sandbox, error),
	out io.Writer,
) *Coordinator {
	return &Coordinator{
		signals:         signals,
		runQ:            runQ,
		pool:            pool.New[sandbox.Sandbox](factory, pool.WithName("sandboxes")),
		ids:             &ids.Actors{},
		line:            diag.NewLine(out),
		actors:          make(map[int64]*actor.Actor),
		spawnRequests:   make(map[string]int64),
		pendingMessages: make(map[string][][]byte),
		reclaimed:       make(map[int64]bool),
	}
}

// AliveCount reports the number of actors not yet observed Dead, for the
// runtime driver's quiescence check.
func (c *Coordinator) AliveCount() int64 {
	return c.alive.Load()
}

// Spawned reports the total number of actors ever constructed, satisfying P5.
func (c *Coordinator) Spawned() int64 {
	return c.spawned.Load()
}

// SpawnRoot synthesizes the one actor that has no SPAWN signal of its own:
// the process root. It follows the same construction steps §4.3 describes
// for SPAWN, minus the correlation bookkeeping a real parent would need.
func (c *Coordinator) SpawnRoot(scriptRef string) (*actor.Actor, error) {
	a, err := c.construct(-1, scriptRef)
	if err != nil {
		return nil, err
	}

	if a.State() != actor.Dead {
		c.runQ.Push(a)
	}

	return a, nil
}

// Prewarm populates the sandbox pool with n idle sandboxes up front, per the
// sandbox pool's "one per hardware thread" startup discipline.
func (c *Coordinator) Prewarm(n int) error {
	warm := make([]sandbox.Sandbox, 0, n)

	defer func() {
		for _, sb := range warm {
			c.pool.Put(sb)
		}
	}()

	for range n {
		sb, err := c.pool.Get()
		if err != nil {
			return fmt.Errorf("coordinator: prewarming sandbox pool: %w", err)
		}

		warm = append(warm, sb)
	}

	return nil
}

func (c *Coordinator) construct(parentID int64, scriptRef string) (*actor.Actor, error) {
	newID := c.ids.Next()

	sb, err := c.pool.Get()
	if err != nil {
		return nil, fmt.Errorf("coordinator: obtaining sandbox: %w", err)
	}

	box := mailbox.New()
	a := actor.New(newID, scriptRef, parentID, box, sb)

	c.actors[newID] = a
	c.spawned.Inc()
	c.alive.Inc()

	if err := sb.Bootstrap(newID, scriptRef, box, c.signals); err != nil {
		c.line.System("actor %d failed to start (%v), script %q has no entry point", newID, err, scriptRef)

		a.SetState(actor.Dead)

		return a, nil
	}

	return a, nil
}

// Run drains the signal channel until a SHUTDOWN is processed or ctx is
// canceled. It returns when the coordinator loop has exited.
func (c *Coordinator) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			c.drainReclaim()

			return
		default:
		}

		sig, ok := c.signals.TryRecv()
		if !ok {
			c.drainReclaim()
			time.Sleep(pollInterval)

			continue
		}

		if c.dispatch(sig) {
			c.drainReclaim()

			return
		}
	}
}

// dispatch handles one signal, returning true if it was SHUTDOWN.
func (c *Coordinator) dispatch(sig sigchan.Signal) bool {
	switch sig.Kind {
	case sigchan.Spawn:
		c.handleSpawn(sig)
	case sigchan.Cast:
		c.handleCast(sig)
	case sigchan.Print:
		c.line.Actor(sig.ActorID, "%s", sig.Line)
	case sigchan.Blocked:
		if a, ok := c.actors[sig.ActorID]; ok {
			a.MarkBlockedUnlessDead()
		}
	case sigchan.Shutdown:
		return true
	}

	return false
}

func (c *Coordinator) handleSpawn(sig sigchan.Signal) {
	a, err := c.construct(sig.ActorID, sig.ScriptRef)
	if err != nil {
		c.line.System("spawn of %q failed: %v", sig.ScriptRef, err)

		return
	}

	c.spawnRequests[sig.RequestID] = a.ID

	if pending, ok := c.pendingMessages[sig.RequestID]; ok {
		for _, msg := range pending {
			a.Mailbox.Enqueue(msg)
		}

		delete(c.pendingMessages, sig.RequestID)
	}

	if a.State() != actor.Dead {
		c.runQ.Push(a)
	}
}

func (c *Coordinator) handleCast(sig sigchan.Signal) {
	targetID, known := c.spawnRequests[sig.RequestID]
	if !known {
		c.pendingMessages[sig.RequestID] = append(c.pendingMessages[sig.RequestID], sig.Payload)

		return
	}

	a, ok := c.actors[targetID]
	if !ok {
		return
	}

	if a.IsDead() {
		c.line.System("dropping cast to dead actor %d", a.ID)

		return
	}

	a.Mailbox.Enqueue(sig.Payload)

	if a.TransitionBlockedToReady() {
		c.runQ.Push(a)
	}
}

// drainReclaim implements §4.3's deferred sandbox reclamation: called only
// when the signal channel was observed empty, it resets (or destroys) the
// sandbox of every actor that has reached Dead since the last pass.
func (c *Coordinator) drainReclaim() {
	for id, a := range c.actors {
		if c.reclaimed[id] || a.State() != actor.Dead {
			continue
		}

		c.reclaimed[id] = true
		c.alive.Dec()

		if err := a.Sandbox.Reset(); err != nil {
			if closeErr := a.Sandbox.Close(); closeErr != nil {
				c.line.System("actor %d sandbox destroy failed: %v", id, closeErr)
			}

			continue
		}

		c.pool.Put(a.Sandbox)
	}
}

// DestroyAll forcibly tears down every actor's sandbox, used by the runtime
// driver during final shutdown so nothing outlives the process.
func (c *Coordinator) DestroyAll() {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed errs.Collection
	)

	for id, a := range c.actors {
		if c.reclaimed[id] {
			continue
		}

		wg.Add(1)

		go func(id int64, a *actor.Actor) {
			defer wg.Done()

			if err := a.Sandbox.Close(); err != nil {
				mu.Lock()
				defer mu.Unlock()

				failed.Add(fmt.Errorf("actor %d: %w", id, err))
			}
		}(id, a)
	}

	wg.Wait()

	if err := c.pool.Close(); err != nil {
		failed.Add(fmt.Errorf("sandbox pool: %w", err))
	}

	if failed.HasError() {
		c.line.System("shutdown teardown errors: %v", failed.GetError())
	}
}

// ActorCount reports how many actors have ever been constructed, for tests.
func (c *Coordinator) ActorCount() int {
	return len(c.actors)
}
