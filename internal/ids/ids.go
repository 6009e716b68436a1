// Package ids mints the two identifier kinds the coordinator hands out:
// dense actor ids and opaque spawn-correlation request ids.
package ids

import "github.com/google/uuid"

// Actors is a coordinator-exclusive, monotonically increasing actor id
// counter. It carries no internal locking because the coordinator is the
// sole writer of next_actor_id, per the runtime's single-writer discipline.
type Actors struct {
	next int64
}

// Next returns the next dense actor id, starting at 0 for the root actor.
func (a *Actors) Next() int64 {
	id := a.next
	a.next++

	return id
}

// Spawned reports how many actors this counter has handed out so far.
func (a *Actors) Spawned() int64 {
	return a.next
}

// NewRequestID mints a fresh opaque correlation token for a spawn, the
// handle that outlives the spawn itself and addresses every subsequent cast
// to the not-yet-created child.
func NewRequestID() string {
	return uuid.NewString()
}
