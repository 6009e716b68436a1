// Package mailbox implements the per-actor FIFO message queue. Per the
// runtime's ownership discipline, only the coordinator enqueues and only
// the owning actor's sandbox dequeues via recv; a worker may additionally
// peek (without dequeuing) to perform the level-triggered blocked recheck.
package mailbox

import "sync"

// Mailbox is a thread-safe FIFO of encoded message payloads.
type Mailbox struct {
	mu    sync.Mutex
	queue [][]byte
}

// New returns an empty mailbox.
func New() *Mailbox {
	return &Mailbox{}
}

// Enqueue appends msg to the tail of the queue. Coordinator-exclusive.
func (m *Mailbox) Enqueue(msg []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.queue = append(m.queue, msg)
}

// Dequeue removes and returns the head of the queue, used by the owning
// sandbox's recv primitive. Returns ok=false if the mailbox is empty.
func (m *Mailbox) Dequeue() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) == 0 {
		return nil, false
	}

	msg := m.queue[0]
	m.queue = m.queue[1:]

	return msg, true
}

// Peek reports whether a message is immediately available, without
// dequeuing it. Used by the worker's level-triggered recheck after a tick
// returns Blocked, to close the sleep-before-wait race without a lock
// shared across the coordinator and worker call sites.
func (m *Mailbox) Peek() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queue) > 0
}

// Len reports the current queue depth, for diagnostics only.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.queue)
}
