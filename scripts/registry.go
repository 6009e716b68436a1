// Package scripts registers the example actor programs shipped with
// actorhost. Each program is a Go closure rather than a source file the
// sandbox loads from disk — see internal/sandbox's package doc for why —
// so "loading a script" here just means resolving its canonical,
// slash-separated name out of the registry built by Registry.
package scripts

import "actorhost/internal/sandbox"

// Registry builds the registry of every example program actorhost ships.
func Registry() *sandbox.Registry {
	reg := sandbox.NewRegistry()

	registerSimple(reg)
	registerChain(reg)
	registerTreeStatic(reg)
	registerTreeRecursive(reg)
	registerRace(reg)
	registerOrphanCast(reg)

	return reg
}
