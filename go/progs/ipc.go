package progs

import (
	"github.com/exocorn/exocorn/go/lib"
	"github.com/exocorn/exocorn/go/models"
)

func init() {
	register(&Prog{Name: "pingpong", Desc: "bounce a counter between parent and child", Main: pingpong})
	register(&Prog{Name: "primes", Desc: "concurrent prime sieve, one environment per prime", Main: primes})
	register(&Prog{Name: "sendpage", Desc: "exchange shared pages between parent and child", Main: sendpage})
}

func pingpong(rt *lib.Runtime) {
	loop := func(rt *lib.Runtime) {
		for {
			i, who, _, err := rt.Recv(lib.NoPage)
			if err != nil {
				rt.Panic("ipc_recv: %v", err)
			}
			rt.Printf("%x got %d from %x\n", uint32(rt.Env), i, uint32(who))
			if i == 10 {
				return
			}
			i++
			rt.Send(who, i, lib.NoPage, 0)
			if i == 10 {
				return
			}
		}
	}
	who := rt.Fork(loop)
	rt.Printf("send 0 from %x to %x\n", uint32(rt.Env), uint32(who))
	rt.Send(who, 0, lib.NoPage, 0)
	loop(rt)
}

const primeLimit = 50

func primes(rt *lib.Runtime) {
	id := rt.Fork(primeproc)
	for i := uint32(2); i <= primeLimit; i++ {
		rt.Send(id, i, lib.NoPage, 0)
	}
	rt.Send(id, 0, lib.NoPage, 0)
}

// primeproc prints the first number it gets and forwards everything its
// prime does not divide. Zero ends the pipeline.
func primeproc(rt *lib.Runtime) {
	p, _, _, err := rt.Recv(lib.NoPage)
	if err != nil || p == 0 {
		return
	}
	rt.Printf("%d\n", p)
	var next models.EnvID
	for {
		i, _, _, err := rt.Recv(lib.NoPage)
		if err != nil {
			rt.Panic("ipc_recv: %v", err)
		}
		if i == 0 {
			break
		}
		if i%p == 0 {
			continue
		}
		if next == 0 {
			next = rt.Fork(primeproc)
		}
		rt.Send(next, i, lib.NoPage, 0)
	}
	if next != 0 {
		rt.Send(next, 0, lib.NoPage, 0)
	}
}

const (
	tempAddr      = 0xa00000
	tempAddrChild = 0xb00000
	msgToChild    = "hello child environment! how are you?"
	msgToParent   = "hello parent environment! I'm good."
)

func sendpage(rt *lib.Runtime) {
	perm := models.Perm(models.PTE_P | models.PTE_U | models.PTE_W)
	who := rt.Fork(func(rt *lib.Runtime) {
		_, who, _, err := rt.Recv(tempAddrChild)
		if err != nil {
			rt.Panic("ipc_recv: %v", err)
		}
		s, _ := rt.ReadString(tempAddrChild, 256)
		rt.Printf("%x got message: %s\n", uint32(who), s)
		if s == msgToChild {
			rt.Printf("child received correct message\n")
		}
		rt.WriteString(tempAddrChild, msgToParent)
		rt.Send(who, 0, tempAddrChild, perm)
	})

	if err := rt.SysPageAlloc(0, tempAddr, perm); err != nil {
		rt.Panic("sys_page_alloc: %v", err)
	}
	rt.WriteString(tempAddr, msgToChild)
	rt.Send(who, 0, tempAddr, perm)

	_, who, _, err := rt.Recv(tempAddr)
	if err != nil {
		rt.Panic("ipc_recv: %v", err)
	}
	s, _ := rt.ReadString(tempAddr, 256)
	rt.Printf("%x got message: %s\n", uint32(who), s)
	if s == msgToParent {
		rt.Printf("parent received correct message\n")
	}
}
