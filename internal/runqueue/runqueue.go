// Package runqueue is the MPMC queue of runnable actors. The coordinator,
// the workers (when they requeue an actor) and the runtime driver (shutdown
// sentinels) push onto it; the worker pool pops from it. It is built
// directly on channels.Create, the teacher's sizing-flexible channel
// constructor, rather than a bespoke ring buffer.
package runqueue

import (
	"actorhost/internal/actor"
	"actorhost/internal/channels"
)

// RunQueue hands Ready actors from the coordinator to whichever worker pops
// next. A nil *actor.Actor is the shutdown sentinel: workers pop it to know
// there is no more work and exit their loop, per §4.4's "pop; if it is the
// shutdown sentinel, exit."
type RunQueue struct {
	in  chan<- *actor.Actor
	out <-chan *actor.Actor
	len func() int
}

// New creates a run queue. size follows channels.Create's convention: size <
// 0 is unbounded, size == 0 is a rendezvous channel, size > 0 is a bounded
// buffer of that capacity.
func New(size int) *RunQueue {
	in, out, length := channels.Create[*actor.Actor](size)

	return &RunQueue{in: in, out: out, len: length}
}

// Push makes a actor eligible to be picked up by a worker.
func (q *RunQueue) Push(a *actor.Actor) {
	q.in <- a
}

// PushShutdown enqueues one shutdown sentinel. The runtime driver calls this
// once per worker during teardown.
func (q *RunQueue) PushShutdown() {
	q.in <- nil
}

// Pop blocks until an actor (or the shutdown sentinel, reported via ok) is
// available. ok is false only once the queue itself has been closed.
func (q *RunQueue) Pop() (*actor.Actor, bool) {
	a, ok := <-q.out

	return a, ok
}

// Len reports the number of actors currently buffered, for diagnostics.
func (q *RunQueue) Len() int {
	return q.len()
}

// Close shuts down the underlying channel. Safe to call once all producers
// are done pushing.
func (q *RunQueue) Close() {
	channels.CloseChannelIgnorePanic(q.in)
}
