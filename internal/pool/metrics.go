package pool

import "go.uber.org/atomic"

// metrics tracks a single pool's lifecycle counters without a metrics-endpoint
// dependency: actorhost has no scrape target, so these are plain in-process
// atomics rather than prometheus vectors keyed by pool name.
type metrics struct {
	alive               atomic.Bool
	objectsCreated      atomic.Int64
	creationErrors      atomic.Int64
	objectsClosed       atomic.Int64
	objectsClosedErrors atomic.Int64
	objectsTotal        atomic.Int64
	objectsInUse        atomic.Int64
	objectsIdle         atomic.Int64
}

func newMetrics() *metrics {
	return &metrics{}
}

// Snapshot is a point-in-time read of a pool's counters, exposed for
// diagnostic logging (e.g. a periodic sandbox-pool utilization line).
type Snapshot struct {
	Alive               bool
	ObjectsCreated      int64
	CreationErrors      int64
	ObjectsClosed       int64
	ObjectsClosedErrors int64
	ObjectsTotal        int64
	ObjectsInUse        int64
	ObjectsIdle         int64
}

func (m *metrics) snapshot() Snapshot {
	return Snapshot{
		Alive:               m.alive.Load(),
		ObjectsCreated:      m.objectsCreated.Load(),
		CreationErrors:      m.creationErrors.Load(),
		ObjectsClosed:       m.objectsClosed.Load(),
		ObjectsClosedErrors: m.objectsClosedErrors.Load(),
		ObjectsTotal:        m.objectsTotal.Load(),
		ObjectsInUse:        m.objectsInUse.Load(),
		ObjectsIdle:         m.objectsIdle.Load(),
	}
}
