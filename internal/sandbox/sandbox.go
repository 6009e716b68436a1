// Package sandbox is the concrete stand-in for the external "execution
// sandbox" capability the specification treats as out of scope. No repo in
// the retrieval pack embeds a scripting VM dependency (the two language-
// implementation repos in the pack are themselves compilers/interpreters,
// not embeddable engines a host process links against), so actor programs
// here are a registry of named Go closures, cooperatively ticked through a
// pair of rendezvous channels — the idiomatic-Go analogue of the Python
// original's per-tick asyncio event-loop drain.
package sandbox

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"actorhost/internal/ids"
	"actorhost/internal/mailbox"
	"actorhost/internal/sigchan"
)

// TickResult is the outcome of advancing a sandbox by one bounded step.
type TickResult int

const (
	// TickReady means the sandbox has more immediately runnable work.
	TickReady TickResult = iota
	// TickBlocked means recv found the mailbox empty; a BLOCKED signal was emitted.
	TickBlocked
	// TickDone means the program returned (or panicked); the actor is finished.
	TickDone
)

// ErrMissingEntry is returned by Bootstrap when script_ref names no
// registered program — the Go analogue of "script has no async entry point".
var ErrMissingEntry = errors.New("sandbox: script has no entry point")

// ErrUserFault wraps a panic escaping a program's tick.
var ErrUserFault = errors.New("sandbox: user fault")

// Sandbox is the interface the coordinator and workers depend on. It
// satisfies io.Closer (via Close, an alias for destroy) so a Sandbox can be
// held directly in a pool.Pool[Sandbox].
type Sandbox interface {
	// Bootstrap binds the sandbox to one actor's identity and channels, one
	// time only, resolving script_ref against the registry.
	Bootstrap(actorID int64, scriptRef string, box *mailbox.Mailbox, signals *sigchan.Channel) error
	// Tick advances the program by one bounded step.
	Tick() (TickResult, error)
	// Reset restores the sandbox to a pristine, unbound state for reuse.
	Reset() error
	// Close releases all sandbox resources permanently.
	Close() error
}

// Runtime is the set of primitives injected into a Program: recv, spawn,
// print, in that order, per the script contract.
type Runtime interface {
	// Recv is the only suspension point visible to user code: if the
	// mailbox is immediately non-empty it returns the next message;
	// otherwise it emits BLOCKED and parks until resumed by the next Tick.
	Recv() []byte
	// Spawn allocates a request_id, emits SPAWN, and returns a Handle whose
	// Cast is usable immediately even though the child may not exist yet.
	Spawn(scriptRef string) Handle
	// Print serializes a formatted diagnostic line through the coordinator.
	Print(format string, args ...any)
}

// Handle is the opaque per-actor cast handle returned by Spawn: the
// language-neutral equivalent of the source's closure-bound cast function.
type Handle struct {
	requestID string
	sb        *cooperativeSandbox
}

// Cast emits a CAST signal carrying msg, addressed to this handle's request_id.
func (h Handle) Cast(msg []byte) {
	h.sb.signals.Send(sigchan.Signal{
		ActorID:   h.sb.actorID,
		Kind:      sigchan.Cast,
		RequestID: h.requestID,
		Payload:   msg,
	})
}

// RequestID exposes the correlation token, for diagnostics and tests only.
func (h Handle) RequestID() string {
	return h.requestID
}

// Program is a user actor's top-level asynchronous entry point.
type Program func(rt Runtime)

// Registry maps script_ref strings to registered Programs, resolving
// relative references against the spawning actor's own script_ref the way
// a filesystem-backed sandbox would resolve relative imports.
type Registry struct {
	mu       sync.RWMutex
	programs map[string]Program
}

// NewRegistry returns an empty script registry.
func NewRegistry() *Registry {
	return &Registry{programs: make(map[string]Program)}
}

// Register binds name to program. Panics on duplicate registration since
// this only ever happens at process init from scripts/ packages.
func (r *Registry) Register(name string, program Program) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.programs[name]; exists {
		panic(fmt.Sprintf("sandbox: script %q already registered", name))
	}

	r.programs[name] = program
}

// Resolve looks up the program registered under the canonical name.
func (r *Registry) Resolve(name string) (Program, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.programs[name]

	return p, ok
}

// ResolveRef resolves target against the directory of base, the way
// spawn(script_ref) resolves relative script references against the
// directory of the spawning actor's own script.
func ResolveRef(base, target string) string {
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}

	return path.Clean(path.Join(path.Dir(base), target))
}
