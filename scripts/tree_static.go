package scripts

import "actorhost/internal/sandbox"

// registerTreeStatic is a fixed-shape 1→2→4 tree: root spawns two branches,
// each branch spawns two leaves, none of them ever recv — every actor runs
// to completion on its first tick.
func registerTreeStatic(reg *sandbox.Registry) {
	reg.Register("tree_static/root", func(rt sandbox.Runtime) {
		rt.Spawn("branch")
		rt.Spawn("branch")
	})

	reg.Register("tree_static/branch", func(rt sandbox.Runtime) {
		rt.Print("BRANCH started")

		rt.Spawn("leaf")
		rt.Spawn("leaf")
	})

	reg.Register("tree_static/leaf", func(rt sandbox.Runtime) {
		rt.Print("LEAF started")
		rt.Print("LEAF finished")
	})
}
