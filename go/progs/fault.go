package progs

import (
	"fmt"

	"github.com/exocorn/exocorn/go/lib"
	"github.com/exocorn/exocorn/go/models"
)

func init() {
	register(&Prog{Name: "faultalloc", Desc: "allocate pages on demand from a user fault handler", Main: faultalloc})
	register(&Prog{Name: "faultdie", Desc: "fault with no handler", Main: faultdie})
}

func faultalloc(rt *lib.Runtime) {
	rt.SetPgfaultHandler(func(rt *lib.Runtime, utf *models.UTrapframe) {
		addr := utf.FaultVA
		rt.Printf("fault %x\n", addr)
		if err := rt.SysPageAlloc(0, models.RoundDown(addr, models.PGSIZE), models.PTE_P|models.PTE_U|models.PTE_W); err != nil {
			rt.Panic("allocating at %x in page fault handler: %v", addr, err)
		}
		rt.WriteString(addr, fmt.Sprintf("this string was faulted in at %x", addr))
	})
	for _, va := range []uint32{0xdeadbeef, 0xcafebffe} {
		s, _ := rt.ReadString(va, 100)
		rt.Printf("%s\n", s)
	}
}

func faultdie(rt *lib.Runtime) {
	rt.User().Write(0xdeadbeef, []byte{0})
	rt.Printf("not reached\n")
}
