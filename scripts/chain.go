package scripts

import (
	"fmt"

	"actorhost/internal/codec"
	"actorhost/internal/sandbox"
)

// registerChain is the three-generation example: root spawns branch, branch
// spawns leaf, each link folding the previous message into its own before
// forwarding it, so the final log line names every hop.
func registerChain(reg *sandbox.Registry) {
	reg.Register("chain/root", func(rt sandbox.Runtime) {
		branch := rt.Spawn("branch")

		msg, err := codec.Marshal("hello from root")
		if err != nil {
			rt.Print("encode error: %v", err)

			return
		}

		branch.Cast(msg)
	})

	reg.Register("chain/branch", func(rt sandbox.Runtime) {
		rt.Print("BRANCH started")

		got, err := codec.Unmarshal[string](rt.Recv())
		if err != nil {
			rt.Print("decode error: %v", err)

			return
		}

		leaf := rt.Spawn("leaf")

		out, err := codec.Marshal(fmt.Sprintf("hello from branch (got: %s)", got))
		if err != nil {
			rt.Print("encode error: %v", err)

			return
		}

		leaf.Cast(out)
	})

	reg.Register("chain/leaf", func(rt sandbox.Runtime) {
		rt.Print("LEAF started")

		got, err := codec.Unmarshal[string](rt.Recv())
		if err != nil {
			rt.Print("decode error: %v", err)

			return
		}

		rt.Print("LEAF received: %s", got)
		rt.Print("LEAF finished")
	})
}
