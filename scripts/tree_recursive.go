package scripts

import (
	"actorhost/internal/codec"
	"actorhost/internal/sandbox"
)

// maxRecursionDepth bounds the recursive binary tree at two levels: the
// root driver spawns depth 0, which spawns two depth-1 children, each of
// which spawns two depth-2 children that print and stop.
const maxRecursionDepth = 2

// registerTreeRecursive is the recursive analogue of tree_static: the same
// node program spawns itself, with the recursion depth threaded through
// the cast payload since a Program carries no closure state of its own
// across a spawn boundary.
func registerTreeRecursive(reg *sandbox.Registry) {
	reg.Register("tree_recursive/root", func(rt sandbox.Runtime) {
		node := rt.Spawn("node")

		msg, err := codec.Marshal(0)
		if err != nil {
			rt.Print("encode error: %v", err)

			return
		}

		node.Cast(msg)
	})

	reg.Register("tree_recursive/node", func(rt sandbox.Runtime) {
		depth, err := codec.Unmarshal[int](rt.Recv())
		if err != nil {
			rt.Print("decode error: %v", err)

			return
		}

		if depth >= maxRecursionDepth {
			rt.Print("Leaf node at depth %d", depth)

			return
		}

		childMsg, err := codec.Marshal(depth + 1)
		if err != nil {
			rt.Print("encode error: %v", err)

			return
		}

		left := rt.Spawn("node")
		left.Cast(childMsg)

		right := rt.Spawn("node")
		right.Cast(childMsg)
	})
}
