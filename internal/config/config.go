// Package config reads the runtime's few tunables from the environment. The
// teacher's own envutil package offers a much richer fluent Reader[T] API
// (URL/UUID/file-path/host-port parsing, context-scoped overrides, combinators
// across several vars at once) built over its own xform/envtypes/tuple/contexts
// stack, but every one of those concerns beyond "parse an optional int" is
// unused here, so pulling in that whole graph for three integers would just
// be dead weight. This package keeps envutil's shape — a small Option type
// layered over a typed read — without its dependency chain.
package config

import (
	"context"
	"os"
	"runtime"
	"strconv"
	"time"
)

// ctxKey scopes test/override values onto a context. Same lookup-before-
// environment pattern as the teacher's envutil.WithEnvOverride, narrowed to
// the single key-value pair this package needs for tests.
type ctxKey string

// Config holds the runtime's tunables, all of which are overridable by
// environment variable.
type Config struct {
	// Workers is the size of the fixed worker pool. Defaults to detected
	// hardware concurrency, overridable by WORKERS.
	Workers int
	// RunQueueSize bounds the run queue's buffer; 0 means rendezvous, a
	// negative value means unbounded. Overridable by RUN_QUEUE_SIZE.
	RunQueueSize int
	// SandboxPoolSize is how many sandboxes to pre-warm at startup.
	// Overridable by SANDBOX_POOL_SIZE.
	SandboxPoolSize int
	// Timeout is an optional wall-clock budget; zero means no timeout. Load
	// does not set it and the runtime driver does not read it: the CLI applies
	// --timeout as a context deadline instead.
	Timeout time.Duration
}

// Load reads Config from the environment, falling back to sane defaults.
func Load(ctx context.Context) Config {
	workers := runtime.NumCPU()

	return Config{
		Workers:         intEnv(ctx, "WORKERS", workers),
		RunQueueSize:    intEnv(ctx, "RUN_QUEUE_SIZE", -1),
		SandboxPoolSize: intEnv(ctx, "SANDBOX_POOL_SIZE", workers),
	}
}

// WithOverride scopes a single environment override onto ctx, for tests that
// need Load to observe a value without mutating the process environment.
func WithOverride(ctx context.Context, key, value string) context.Context {
	return context.WithValue(ctx, ctxKey(key), value)
}

func lookup(ctx context.Context, key string) (string, bool) {
	if v, ok := ctx.Value(ctxKey(key)).(string); ok {
		return v, true
	}

	return os.LookupEnv(key)
}

func intEnv(ctx context.Context, key string, def int) int {
	raw, ok := lookup(ctx, key)
	if !ok {
		return def
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}

	return v
}
