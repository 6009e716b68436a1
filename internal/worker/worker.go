// Package worker implements the fixed worker pool: each worker pops one
// actor from the run queue, runs exactly one tick in its sandbox, and
// classifies the result per §4.4. The pool itself is github.com/alitto/pond/v2,
// the same fixed-size task pool the teacher uses for its own background
// worker pool, here given one long-running task per worker instead of many
// short-lived ones.
package worker

import (
	"fmt"

	"actorhost/internal/actor"
	"actorhost/internal/diag"
	"actorhost/internal/runqueue"
	"actorhost/internal/sandbox"
	"actorhost/internal/try"
	"github.com/alitto/pond/v2"
)

// Pool is the fixed set of workers driving the run queue.
type Pool struct {
	pond pond.Pool
	runQ *runqueue.RunQueue
	line *diag.Line
}

// New starts n workers, each immediately looping on runQ.Pop.
func New(n int, runQ *runqueue.RunQueue, line *diag.Line) *Pool {
	p := &Pool{pond: pond.NewPool(n), runQ: runQ, line: line}

	for range n {
		p.pond.Submit(p.loop)
	}

	return p
}

// loop is one worker's infinite pop-tick-classify cycle. It returns once
// the shutdown sentinel (a nil actor) is popped, or the queue is closed.
func (p *Pool) loop() {
	for {
		a, ok := p.runQ.Pop()
		if !ok || a == nil {
			return
		}

		p.tick(a)
	}
}

// tick runs exactly one sandbox.Tick for a and reclassifies its state.
func (p *Pool) tick(a *actor.Actor) {
	a.SetState(actor.Running)

	outcome := p.safeTick(a)

	result, err := outcome.Get()
	if err != nil {
		p.line.System("actor %d faulted: %v", a.ID, err)
		a.SetState(actor.Dead)
		_ = a.Sandbox.Close()

		return
	}

	switch result {
	case sandbox.TickReady:
		a.SetState(actor.Ready)
		p.runQ.Push(a)
	case sandbox.TickBlocked:
		// Level-triggered recheck: a CAST may have landed between the
		// sandbox's recv attempt and this worker observing Blocked.
		if a.Mailbox.Peek() {
			a.SetState(actor.Ready)
			p.runQ.Push(a)
		} else {
			a.SetState(actor.Blocked)
		}
	case sandbox.TickDone:
		a.SetState(actor.Dead)
	}
}

// safeTick guards against a sandbox implementation that panics instead of
// returning an error; the cooperative sandbox never does, but the Sandbox
// interface makes no such promise to its callers. The outcome travels back
// to tick as a try.Try, the same "do work, report back" shape the sandbox
// pool uses internally for Get/Put results.
func (p *Pool) safeTick(a *actor.Actor) (outcome try.Try[sandbox.TickResult]) {
	defer func() {
		if r := recover(); r != nil {
			outcome = try.Try[sandbox.TickResult]{Error: fmt.Errorf("panic: %v", r)}
		}
	}()

	res, err := a.Sandbox.Tick()

	return try.Try[sandbox.TickResult]{Value: res, Error: err}
}

// StopAndWait blocks until every worker has returned from its loop.
func (p *Pool) StopAndWait() {
	p.pond.StopAndWait()
}
