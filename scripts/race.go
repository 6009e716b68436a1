package scripts

import (
	"actorhost/internal/codec"
	"actorhost/internal/sandbox"
)

// raceMessageCount is the number of sequential casts root fires at its
// child immediately after spawning it, with no recv in between — the
// spawn-then-flood pattern that exercises the no-reorder guarantee between
// a SPAWN and the CASTs that follow it from the same sender.
const raceMessageCount = 1000

// registerRace spawns a child and immediately floods it with sequential
// casts; the child fails loudly the moment one arrives out of order.
func registerRace(reg *sandbox.Registry) {
	reg.Register("race/root", func(rt sandbox.Runtime) {
		child := rt.Spawn("child")

		for i := range raceMessageCount {
			msg, err := codec.Marshal(i)
			if err != nil {
				rt.Print("encode error: %v", err)

				return
			}

			child.Cast(msg)
		}
	})

	reg.Register("race/child", func(rt sandbox.Runtime) {
		for want := range raceMessageCount {
			got, err := codec.Unmarshal[int](rt.Recv())
			if err != nil {
				rt.Print("decode error: %v", err)

				return
			}

			if got != want {
				rt.Print("out of order: want %d got %d", want, got)

				return
			}
		}

		rt.Print("race: delivered %d messages in order", raceMessageCount)
	})
}
