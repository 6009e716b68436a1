package scripts

import (
	"actorhost/internal/codec"
	"actorhost/internal/sandbox"
)

// registerSimple is the minimal one-parent-one-child example: parent spawns
// a child and casts it a single string, child decodes and prints it.
func registerSimple(reg *sandbox.Registry) {
	reg.Register("simple/parent", func(rt sandbox.Runtime) {
		rt.Print("Parent starting, spawning child...")

		child := rt.Spawn("child")

		msg, err := codec.Marshal("hello")
		if err != nil {
			rt.Print("encode error: %v", err)

			return
		}

		child.Cast(msg)
	})

	reg.Register("simple/child", func(rt sandbox.Runtime) {
		got, err := codec.Unmarshal[string](rt.Recv())
		if err != nil {
			rt.Print("decode error: %v", err)

			return
		}

		rt.Print("received message: %s", got)
		rt.Print("Child finished")
	})
}
