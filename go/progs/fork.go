package progs

import (
	"github.com/exocorn/exocorn/go/lib"
	"github.com/exocorn/exocorn/go/models"
)

func init() {
	register(&Prog{Name: "forktree", Desc: "fork a binary tree of environments three levels deep", Main: forktree("")})
	register(&Prog{Name: "cowcheck", Desc: "show that a forked child's writes stay private", Main: cowcheck})
}

const forkDepth = 3

func forktree(cur string) lib.Main {
	return func(rt *lib.Runtime) {
		rt.Printf("%04x: I am '%s'\n", uint32(rt.SysGetenvid()), cur)
		forkchild(rt, cur, '0')
		forkchild(rt, cur, '1')
	}
}

func forkchild(rt *lib.Runtime, cur string, branch byte) {
	if len(cur) >= forkDepth {
		return
	}
	rt.Fork(forktree(cur + string(branch)))
}

const cowVA = 0x800000

func cowcheck(rt *lib.Runtime) {
	if err := rt.SysPageAlloc(0, cowVA, models.PTE_P|models.PTE_U|models.PTE_W); err != nil {
		rt.Panic("sys_page_alloc: %v", err)
	}
	rt.WriteString(cowVA, "parent")
	child := rt.Fork(func(rt *lib.Runtime) {
		s, _ := rt.ReadString(cowVA, 16)
		rt.Printf("child sees %s\n", s)
		rt.WriteString(cowVA, "child")
		s, _ = rt.ReadString(cowVA, 16)
		rt.Printf("child wrote %s\n", s)
	})
	for {
		info := rt.User().EnvAt(child.Slot())
		if info.ID != child || info.Status == models.ENV_FREE {
			break
		}
		rt.SysYield()
	}
	s, _ := rt.ReadString(cowVA, 16)
	rt.Printf("parent sees %s\n", s)
}
