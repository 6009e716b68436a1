// Package sigchan implements the signal channel: the single multi-producer,
// single-consumer stream of control records emitted by every sandbox and
// consumed exclusively by the coordinator.
//
// The source's string-encoded grammar ("SPAWN:<request_id>:<script_ref>", ...)
// is replaced here with a tagged sum type per the runtime's own redesign
// notes: Kind selects which of the typed fields below are meaningful, and
// the channel transports Signal values directly instead of delimited text.
package sigchan

import "actorhost/internal/channels"

// Kind tags the variant of a Signal.
type Kind int

const (
	// Spawn requests creation of a new actor running ScriptRef, correlated by RequestID.
	Spawn Kind = iota
	// Cast delivers an encoded message to the actor addressed by RequestID.
	Cast
	// Print asks the coordinator to emit Line to the diagnostic stream.
	Print
	// Blocked is advisory: the emitting actor's sandbox found its mailbox empty.
	Blocked
	// Shutdown is produced solely by the runtime driver to stop the coordinator loop.
	Shutdown
)

// String renders a Kind for logging.
func (k Kind) String() string {
	switch k {
	case Spawn:
		return "SPAWN"
	case Cast:
		return "CAST"
	case Print:
		return "PRINT"
	case Blocked:
		return "BLOCKED"
	case Shutdown:
		return "SHUTDOWN"
	default:
		return "UNKNOWN"
	}
}

// Signal is one control record flowing from a sandbox to the coordinator.
// Only the fields relevant to Kind are populated.
type Signal struct {
	ActorID   int64
	Kind      Kind
	RequestID string
	ScriptRef string
	Payload   []byte
	Line      string
}

// Channel is the signal channel: an MPSC FIFO of Signal values. Producers
// (every sandbox, via the worker ticking it) never block on Send; the
// channel buffers without bound so a sandbox's tick can never stall behind
// a slow coordinator, mirroring the teacher's InfiniteChan buffering
// pattern.
type Channel struct {
	send chan<- Signal
	recv <-chan Signal
	len  func() int
}

// New constructs a signal channel with unbounded internal buffering.
func New() *Channel {
	send, recv, length := channels.Create[Signal](-1)

	return &Channel{send: send, recv: recv, len: length}
}

// Send enqueues a signal. Never blocks (backed by infinite buffering).
func (c *Channel) Send(s Signal) {
	c.send <- s
}

// TryRecv performs a non-blocking pop, matching the coordinator's
// "pop one signal (non-blocking)" loop step.
func (c *Channel) TryRecv() (Signal, bool) {
	select {
	case s, ok := <-c.recv:
		return s, ok
	default:
		return Signal{}, false
	}
}

// Empty reports whether the channel currently holds no buffered signals,
// one half of the runtime's quiescence condition.
func (c *Channel) Empty() bool {
	return c.len() == 0
}

// Close shuts down the producer side. Only the runtime driver, after
// issuing Shutdown, should call this.
func (c *Channel) Close() {
	channels.CloseChannelIgnorePanic(c.send)
}
