// Package actor defines the actor record: identity, state, and the two
// resources (mailbox, sandbox) it exclusively owns. The generic teacher
// statemachine package assumed a single sequential caller driving one FSM;
// here state is mutated concurrently by the coordinator (on the ingress
// path) and by whichever single worker currently holds the actor between
// pop and requeue, so it is modeled as a small mutex-guarded enum instead.
package actor

import (
	"sync"

	"actorhost/internal/mailbox"
	"actorhost/internal/sandbox"
)

// State is one of the four points in the actor lifecycle.
type State int

const (
	// Ready means the actor is eligible to be popped from the run queue.
	Ready State = iota
	// Running means a worker currently holds the actor and is inside tick().
	Running
	// Blocked means the actor's last tick found its mailbox empty.
	Blocked
	// Dead is terminal; no transition leaves it.
	Dead
)

// String renders a State for logging.
func (s State) String() string {
	switch s {
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Blocked:
		return "Blocked"
	case Dead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// Actor is the central runtime entity: identity, state, and its exclusively
// owned mailbox and sandbox.
type Actor struct {
	ID        int64
	ScriptRef string
	ParentID  int64 // diagnostics only; -1 for the root actor
	Mailbox   *mailbox.Mailbox
	Sandbox   sandbox.Sandbox

	mu    sync.Mutex
	state State
}

// New constructs an actor in the initial Ready state.
func New(id int64, scriptRef string, parentID int64, box *mailbox.Mailbox, sb sandbox.Sandbox) *Actor {
	return &Actor{
		ID:        id,
		ScriptRef: scriptRef,
		ParentID:  parentID,
		Mailbox:   box,
		Sandbox:   sb,
		state:     Ready,
	}
}

// State returns the actor's current state.
func (a *Actor) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.state
}

// SetState overwrites the actor's state unconditionally.
func (a *Actor) SetState(s State) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = s
}

// TransitionBlockedToReady atomically moves the actor from Blocked to
// Ready, reporting whether the transition applied. Used by the coordinator
// when a CAST lands on a Blocked target (§4.3) so a concurrent advisory
// BLOCKED from the worker cannot stomp on it.
func (a *Actor) TransitionBlockedToReady() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == Blocked {
		a.state = Ready

		return true
	}

	return false
}

// MarkBlockedUnlessDead sets Blocked unless the actor already reached Dead,
// matching the BLOCKED signal's advisory handling in §4.3.
func (a *Actor) MarkBlockedUnlessDead() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state != Dead {
		a.state = Blocked
	}
}

// IsDead reports whether the actor has reached the terminal state.
func (a *Actor) IsDead() bool {
	return a.State() == Dead
}
