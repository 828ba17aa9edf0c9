package lib

import (
	"github.com/exocorn/exocorn/go/models"
)

const cowPerm = models.PTE_P | models.PTE_U | models.PTE_COW

// duppage maps the page at va into child following the copy-on-write rules.
func (rt *Runtime) duppage(child models.EnvID, va uint32, pte models.PTE) error {
	perm := pte.Perm()
	switch {
	case va == models.UXSTACKTOP-models.PGSIZE:
		return nil
	case perm&models.PTE_SHARE != 0:
		return rt.SysPageMap(0, va, child, va, perm&models.PTE_SYSCALL)
	case perm&(models.PTE_W|models.PTE_COW) != 0:
		if err := rt.SysPageMap(0, va, child, va, cowPerm); err != nil {
			return err
		}
		// remap our own copy even if it was already COW
		return rt.SysPageMap(0, va, 0, va, cowPerm)
	default:
		return rt.SysPageMap(0, va, child, va, models.PTE_P|models.PTE_U)
	}
}

// Fork creates a copy-on-write child that runs child and returns its id.
// The child starts from a one-shot entry that sees exofork return 0, so
// child never executes in the parent.
func (rt *Runtime) Fork(child Main) models.EnvID {
	rt.SetPgfaultHandler(pgfault)
	u := rt.u
	parent := rt
	resume := u.Anon(func(cu models.User) {
		if cu.Ret() != 0 {
			Current(cu).Panic("fork: child resumed with eax %d", cu.Ret())
		}
		crt := parent.clone(cu)
		child(crt)
		crt.Exit()
	})

	saved := u.PC()
	u.SetPC(resume)
	id, err := rt.SysExofork()
	u.SetPC(saved)
	if err != nil {
		u.Drop(resume)
		rt.Panic("sys_exofork: %v", err)
	}

	for pdx := uint32(0); pdx < models.PDX(models.UTOP); pdx++ {
		base := pdx << models.PDXSHIFT
		if !u.PDE(base).Present() {
			continue
		}
		for ptx := uint32(0); ptx < models.NPTENTRIES; ptx++ {
			va := base | ptx<<models.PTXSHIFT
			if va >= models.UTOP {
				break
			}
			pte := u.PTE(va)
			if !pte.Present() || pte.Perm()&models.PTE_U == 0 {
				continue
			}
			if err := rt.duppage(id, va, pte); err != nil {
				rt.Panic("duppage %08x: %v", va, err)
			}
		}
	}

	if err := rt.SysPageAlloc(id, models.UXSTACKTOP-models.PGSIZE, models.PTE_P|models.PTE_U|models.PTE_W); err != nil {
		rt.Panic("fork: exception stack: %v", err)
	}
	if err := rt.SysEnvSetPgfaultUpcall(id, rt.upcall()); err != nil {
		rt.Panic("fork: upcall: %v", err)
	}
	if err := rt.SysEnvSetStatus(id, models.ENV_RUNNABLE); err != nil {
		rt.Panic("fork: set status: %v", err)
	}
	return id
}
