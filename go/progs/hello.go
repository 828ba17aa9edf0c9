package progs

import (
	"github.com/exocorn/exocorn/go/lib"
)

func init() {
	register(&Prog{Name: "hello", Desc: "print a greeting and the environment id", Main: hello})
	register(&Prog{Name: "spin", Desc: "fork a child that spins, then kill it", Main: spin})
}

func hello(rt *lib.Runtime) {
	rt.Printf("hello, world\n")
	rt.Printf("i am environment %s\n", rt.Env)
}

func spin(rt *lib.Runtime) {
	rt.Printf("I am the parent.  Forking the child...\n")
	child := rt.Fork(func(rt *lib.Runtime) {
		rt.Printf("I am the child.  Spinning...\n")
		for {
			rt.SysYield()
		}
	})
	rt.Printf("I am the parent.  Running the child...\n")
	for i := 0; i < 8; i++ {
		rt.SysYield()
	}
	rt.Printf("I am the parent.  Killing the child...\n")
	rt.SysEnvDestroy(child)
}
