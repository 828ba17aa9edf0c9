package lib

import (
	"github.com/exocorn/exocorn/go/models"
)

const upcallSymbol = "_pgfault_upcall"

// upcall is the address the kernel branches to on a page fault.
func (rt *Runtime) upcall() uint32 {
	return rt.u.Symbol(upcallSymbol, pgfaultUpcall)
}

// SetPgfaultHandler installs h. The first call also allocates the exception
// stack and registers the upcall with the kernel.
func (rt *Runtime) SetPgfaultHandler(h Handler) {
	if !rt.upcallSet {
		if err := rt.SysPageAlloc(0, models.UXSTACKTOP-models.PGSIZE, models.PTE_P|models.PTE_U|models.PTE_W); err != nil {
			rt.Panic("set_pgfault_handler: %v", err)
		}
		if err := rt.SysEnvSetPgfaultUpcall(0, rt.upcall()); err != nil {
			rt.Panic("set_pgfault_handler: %v", err)
		}
		rt.upcallSet = true
	}
	rt.handler = h
}

// pgfaultUpcall runs on the exception stack with esp pointing at the fault
// record. It calls the handler and resumes the faulting context.
func pgfaultUpcall(u models.User) {
	rt := Current(u)
	buf := make([]byte, models.UTrapframeSize)
	if err := u.Read(u.SP(), buf); err != nil {
		return
	}
	var utf models.UTrapframe
	if err := utf.Unpack(buf); err != nil {
		rt.Panic("pgfault upcall: %v", err)
	}
	if rt.handler == nil {
		rt.Panic("unhandled page fault va %08x ip %08x", utf.FaultVA, utf.EIP)
	}
	rt.handler(rt, &utf)
	u.Restore(&utf)
}

// pgfault resolves writes to copy-on-write pages with a private copy.
func pgfault(rt *Runtime, utf *models.UTrapframe) {
	u := rt.u
	addr := utf.FaultVA
	pte := u.PTE(addr)
	if utf.Err&models.FEC_WR == 0 || !u.PDE(addr).Present() || !pte.Present() || pte.Perm()&models.PTE_COW == 0 {
		rt.Panic("pgfault: not a write to a copy-on-write page, va %08x err %x", addr, utf.Err)
	}
	addr = models.RoundDown(addr, models.PGSIZE)

	if err := rt.SysPageAlloc(0, models.PFTEMP, models.PTE_P|models.PTE_U|models.PTE_W); err != nil {
		rt.Panic("pgfault: sys_page_alloc: %v", err)
	}
	page := make([]byte, models.PGSIZE)
	if err := u.Read(addr, page); err != nil {
		rt.Panic("pgfault: read %08x: %v", addr, err)
	}
	if err := u.Write(models.PFTEMP, page); err != nil {
		rt.Panic("pgfault: write PFTEMP: %v", err)
	}
	if err := rt.SysPageMap(0, models.PFTEMP, 0, addr, models.PTE_P|models.PTE_U|models.PTE_W); err != nil {
		rt.Panic("pgfault: sys_page_map: %v", err)
	}
	if err := rt.SysPageUnmap(0, models.PFTEMP); err != nil {
		rt.Panic("pgfault: sys_page_unmap: %v", err)
	}
}
