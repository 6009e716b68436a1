// Package runtime is the Runtime Driver (§4.6): it wires the signal
// channel, run queue, coordinator, and worker pool together, spawns the
// root actor, pre-warms the sandbox pool, detects quiescence, and performs
// shutdown.
package runtime

import (
	"context"
	"errors"
	"io"
	"time"

	"actorhost/internal/actor"
	"actorhost/internal/config"
	"actorhost/internal/coordinator"
	"actorhost/internal/diag"
	"actorhost/internal/runqueue"
	"actorhost/internal/sandbox"
	"actorhost/internal/sigchan"
	"actorhost/internal/worker"
)

// quiescencePollInterval bounds how often the driver samples the joint
// quiescence condition (all actors Dead ∧ signal channel empty).
const quiescencePollInterval = time.Millisecond

// shutdownGrace bounds how long the driver waits for the coordinator to
// drain its final PRINTs after SHUTDOWN before forcing it to stop.
const shutdownGrace = 2 * time.Second

// Exit codes per §6.
const (
	ExitQuiescent     = 0
	ExitMissingScript = 1
	ExitTimeout       = 2
	ExitFatal         = 3
)

// ErrFatal wraps an unexpected driver-level failure (e.g. the sandbox pool
// failing to supply the root actor's sandbox).
var ErrFatal = errors.New("runtime: fatal error")

// Result summarizes one run for the CLI layer.
type Result struct {
	ExitCode int
	Spawned  int64
}

// Driver owns the wiring for one run of the actor host.
type Driver struct {
	cfg     config.Config
	signals *sigchan.Channel
	runQ    *runqueue.RunQueue
	coord   *coordinator.Coordinator
	line    *diag.Line
}

// New assembles a Driver. registry supplies the sandbox implementations
// available to spawn, out is the diagnostic line sink (§6).
func New(cfg config.Config, registry *sandbox.Registry, out io.Writer) *Driver {
	signals := sigchan.New()
	runQ := runqueue.New(cfg.RunQueueSize)

	factory := func() (sandbox.Sandbox, error) {
		return sandbox.NewCooperativeSandbox(registry), nil
	}

	return &Driver{
		cfg:     cfg,
		signals: signals,
		runQ:    runQ,
		coord:   coordinator.New(signals, runQ, factory, out),
		line:    diag.NewLine(out),
	}
}

// Run spawns the root actor running scriptRef and drives the system to
// quiescence, to ctx cancellation, or to a fatal error.
func (d *Driver) Run(ctx context.Context, scriptRef string) (Result, error) {
	if err := d.coord.Prewarm(d.cfg.SandboxPoolSize); err != nil {
		return Result{ExitCode: ExitFatal}, errors.Join(ErrFatal, err)
	}

	root, err := d.coord.SpawnRoot(scriptRef)
	if err != nil {
		return Result{ExitCode: ExitFatal}, errors.Join(ErrFatal, err)
	}

	if root.State() == actor.Dead {
		return Result{ExitCode: ExitMissingScript, Spawned: d.coord.Spawned()}, sandbox.ErrMissingEntry
	}

	coordCtx, cancelCoord := context.WithCancel(context.Background())

	coordDone := make(chan struct{})

	go func() {
		defer close(coordDone)

		d.coord.Run(coordCtx)
	}()

	workers := worker.New(d.cfg.Workers, d.runQ, d.line)

	quiescent := make(chan struct{})

	go d.watchQuiescence(ctx, quiescent)

	exitCode := ExitQuiescent

	select {
	case <-quiescent:
	case <-ctx.Done():
		exitCode = ExitTimeout
	}

	d.signals.Send(sigchan.Signal{Kind: sigchan.Shutdown})

	select {
	case <-coordDone:
	case <-time.After(shutdownGrace):
		cancelCoord()
		<-coordDone
	}

	cancelCoord()

	for range d.cfg.Workers {
		d.runQ.PushShutdown()
	}

	workers.StopAndWait()
	d.coord.DestroyAll()

	spawned := d.coord.Spawned()
	d.line.System("Total actors spawned: %d", spawned)

	if err := diag.Shutdown(context.Background()); err != nil {
		d.line.System("diagnostic log shutdown: %v", err)
	}

	return Result{ExitCode: exitCode, Spawned: spawned}, nil
}

// watchQuiescence signals done once every actor has reached Dead and the
// signal channel is empty, per §4.6's joint termination condition.
func (d *Driver) watchQuiescence(ctx context.Context, done chan<- struct{}) {
	ticker := time.NewTicker(quiescencePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if d.coord.AliveCount() == 0 && d.signals.Empty() {
				close(done)

				return
			}
		}
	}
}
