package scripts_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"actorhost/internal/config"
	"actorhost/internal/runtime"
	"actorhost/scripts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.Config {
	return config.Config{Workers: 4, RunQueueSize: 64, SandboxPoolSize: 4}
}

func run(t *testing.T, entry string) (runtime.Result, string) {
	t.Helper()

	var buf bytes.Buffer

	d := runtime.New(testConfig(), scripts.Registry(), &buf)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := d.Run(ctx, entry)
	require.NoError(t, err)

	return result, buf.String()
}

func TestScripts_SimpleParentChild(t *testing.T) {
	t.Parallel()

	result, out := run(t, "simple/parent")

	assert.Equal(t, runtime.ExitQuiescent, result.ExitCode)
	assert.Equal(t, int64(2), result.Spawned)
	assert.Contains(t, out, "Parent starting, spawning child...")
	assert.Contains(t, out, "received message: hello")
	assert.Contains(t, out, "Child finished")
}

func TestScripts_ThreeActorChain(t *testing.T) {
	t.Parallel()

	result, out := run(t, "chain/root")

	assert.Equal(t, runtime.ExitQuiescent, result.ExitCode)
	assert.Equal(t, int64(3), result.Spawned)
	assert.Contains(t, out, "LEAF received: hello from branch (got: hello from root)")
}

func TestScripts_StaticTree(t *testing.T) {
	t.Parallel()

	result, out := run(t, "tree_static/root")

	assert.Equal(t, runtime.ExitQuiescent, result.ExitCode)
	assert.Equal(t, int64(7), result.Spawned)
	assert.Equal(t, 2, strings.Count(out, "BRANCH started"))
	assert.Equal(t, 4, strings.Count(out, "LEAF started"))
	assert.Equal(t, 4, strings.Count(out, "LEAF finished"))
}

func TestScripts_RecursiveTree(t *testing.T) {
	t.Parallel()

	result, out := run(t, "tree_recursive/root")

	assert.Equal(t, runtime.ExitQuiescent, result.ExitCode)
	assert.Equal(t, int64(8), result.Spawned)
	assert.Equal(t, 4, strings.Count(out, "Leaf node at depth 2"))
}

func TestScripts_SpawnCastRaceDeliversInOrder(t *testing.T) {
	t.Parallel()

	result, out := run(t, "race/root")

	assert.Equal(t, runtime.ExitQuiescent, result.ExitCode)
	assert.Equal(t, int64(2), result.Spawned)
	assert.Contains(t, out, "race: delivered 1000 messages in order")
	assert.NotContains(t, out, "out of order")
}

func TestScripts_OrphanCastDoesNotBlockSibling(t *testing.T) {
	t.Parallel()

	result, out := run(t, "orphan_cast/root")

	assert.Equal(t, runtime.ExitQuiescent, result.ExitCode)
	assert.Equal(t, int64(3), result.Spawned)
	assert.Contains(t, out, "orphan cast sent")
	assert.Contains(t, out, "sibling got: hi")
}
