package sandbox

import (
	"fmt"
	"sync"

	"actorhost/internal/ids"
	"actorhost/internal/mailbox"
	"actorhost/internal/sigchan"
)

type outcomeKind int

const (
	outcomeBlocked outcomeKind = iota
	outcomeReady
	outcomeDone
	outcomePanic
)

type outcome struct {
	kind outcomeKind
	err  error
}

// cooperativeSandbox runs one Program in its own goroutine, rendezvousing
// with Tick via a pair of unbuffered channels: resumeCh lets Tick hand
// control back to the program for one more bounded step, yieldCh is how the
// program (or its Recv primitive) reports what happened back to Tick.
type cooperativeSandbox struct {
	registry *Registry

	mu        sync.Mutex
	actorID   int64
	scriptRef string
	box       *mailbox.Mailbox
	signals   *sigchan.Channel
	program   Program

	resumeCh chan struct{}
	yieldCh  chan outcome
	started  bool
	finished bool
}

// NewCooperativeSandbox returns a fresh, unbound sandbox resolving scripts
// against reg.
func NewCooperativeSandbox(reg *Registry) Sandbox {
	return &cooperativeSandbox{registry: reg}
}

func (s *cooperativeSandbox) Bootstrap(
	actorID int64, scriptRef string, box *mailbox.Mailbox, signals *sigchan.Channel,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	program, ok := s.registry.Resolve(scriptRef)
	if !ok {
		return fmt.Errorf("%w: %q", ErrMissingEntry, scriptRef)
	}

	s.actorID = actorID
	s.scriptRef = scriptRef
	s.box = box
	s.signals = signals
	s.program = program
	s.resumeCh = make(chan struct{})
	s.yieldCh = make(chan outcome)
	s.started = false
	s.finished = false

	return nil
}

func (s *cooperativeSandbox) Tick() (TickResult, error) {
	if s.finished {
		return TickDone, nil
	}

	if !s.started {
		s.started = true

		go s.run()
	} else {
		s.resumeCh <- struct{}{}
	}

	out := <-s.yieldCh

	switch out.kind {
	case outcomeBlocked:
		return TickBlocked, nil
	case outcomeReady:
		return TickReady, nil
	case outcomeDone:
		s.finished = true

		return TickDone, nil
	case outcomePanic:
		s.finished = true

		return TickDone, out.err
	default:
		return TickDone, fmt.Errorf("sandbox: unknown tick outcome %d", out.kind)
	}
}

func (s *cooperativeSandbox) run() {
	defer func() {
		if r := recover(); r != nil {
			s.yieldCh <- outcome{kind: outcomePanic, err: fmt.Errorf("%w: %v", ErrUserFault, r)}
		}
	}()

	s.program(&runtimeImpl{sb: s})

	s.yieldCh <- outcome{kind: outcomeDone}
}

func (s *cooperativeSandbox) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actorID = 0
	s.scriptRef = ""
	s.box = nil
	s.signals = nil
	s.program = nil
	s.resumeCh = nil
	s.yieldCh = nil
	s.started = false
	s.finished = false

	return nil
}

// Close releases sandbox resources. A closure-backed sandbox holds nothing
// beyond Go-GC'd channels and slices, so this is a no-op kept to satisfy the
// io.Closer constraint a sandbox pool requires.
func (s *cooperativeSandbox) Close() error {
	return nil
}

// runtimeImpl is the Runtime implementation handed to a running Program.
type runtimeImpl struct {
	sb *cooperativeSandbox
}

func (rt *runtimeImpl) Recv() []byte {
	for {
		if msg, ok := rt.sb.box.Dequeue(); ok {
			return msg
		}

		rt.sb.signals.Send(sigchan.Signal{ActorID: rt.sb.actorID, Kind: sigchan.Blocked})
		rt.sb.yieldCh <- outcome{kind: outcomeBlocked}
		<-rt.sb.resumeCh
	}
}

func (rt *runtimeImpl) Spawn(scriptRef string) Handle {
	requestID := ids.NewRequestID()
	resolved := ResolveRef(rt.sb.scriptRef, scriptRef)

	rt.sb.signals.Send(sigchan.Signal{
		ActorID:   rt.sb.actorID,
		Kind:      sigchan.Spawn,
		RequestID: requestID,
		ScriptRef: resolved,
	})

	return Handle{requestID: requestID, sb: rt.sb}
}

func (rt *runtimeImpl) Print(format string, args ...any) {
	rt.sb.signals.Send(sigchan.Signal{
		ActorID: rt.sb.actorID,
		Kind:    sigchan.Print,
		Line:    fmt.Sprintf(format, args...),
	})
}
