package scripts

import (
	"actorhost/internal/codec"
	"actorhost/internal/sandbox"
)

// registerOrphanCast spawns an unregistered script alongside a normal
// sibling. The request_id minted for "nowhere" is recorded in the
// coordinator's correlation table but never reaches a living actor — the
// closest a typed Handle API can come to casting against a request_id that
// never had a matching spawn succeed — and must not disturb the sibling or
// stall quiescence.
func registerOrphanCast(reg *sandbox.Registry) {
	reg.Register("orphan_cast/root", func(rt sandbox.Runtime) {
		ghost := rt.Spawn("nowhere")

		msg, err := codec.Marshal("never delivered")
		if err != nil {
			rt.Print("encode error: %v", err)

			return
		}

		ghost.Cast(msg)

		sibling := rt.Spawn("sibling")

		out, err := codec.Marshal("hi")
		if err != nil {
			rt.Print("encode error: %v", err)

			return
		}

		sibling.Cast(out)

		rt.Print("orphan cast sent")
	})

	reg.Register("orphan_cast/sibling", func(rt sandbox.Runtime) {
		got, err := codec.Unmarshal[string](rt.Recv())
		if err != nil {
			rt.Print("decode error: %v", err)

			return
		}

		rt.Print("sibling got: %s", got)
	})
}
